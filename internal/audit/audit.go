// Package audit writes one JSON file per import attempt so that what was sent
// to the library can be inspected afterwards.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OutcomeImported = "imported"
	OutcomeFailed   = "failed"
)

// ImportEntry is the audit record of one import attempt.
type ImportEntry struct {
	ID          string    `json:"id"`
	RecordedAt  time.Time `json:"recorded_at"`
	ServiceURL  string    `json:"service_url"`
	ASIN        string    `json:"asin"`
	SourceURL   string    `json:"source_url"`
	Outcome     string    `json:"outcome"`
	UserBookID  string    `json:"user_book_id,omitempty"`
	CoverStored bool      `json:"cover_stored"`
	Error       string    `json:"error,omitempty"`
	Payload     any       `json:"payload"`
}

type Auditor struct {
	AuditDir string
}

// NewAuditor creates an Auditor writing one JSON file per entry into auditDir.
func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// RecordImport fills in the entry id and timestamp and saves it.
func (a *Auditor) RecordImport(entry ImportEntry) (string, error) {
	entry.ID = uuid.NewString()
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	return a.save(entry.ID, entry)
}

// SaveJSON saves the provided data as JSON to a file with UUID4 filename
func (a *Auditor) SaveJSON(data any) (string, error) {
	return a.save(uuid.NewString(), data)
}

func (a *Auditor) save(id string, data any) (string, error) {
	if err := os.MkdirAll(a.AuditDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	filename := id + ".json"
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	logrus.WithField("path", path).Debug("Saved audit file")
	return filename, nil
}
