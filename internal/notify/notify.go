// Package notify holds short-lived user-facing status messages.
package notify

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// DefaultDismissAfter is how long a notification stays visible.
const DefaultDismissAfter = 5 * time.Second

// Severity classifies a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is one status message as shown to the user.
type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier receives status messages.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Board keeps notifications until they auto-dismiss. Safe for concurrent use.
type Board struct {
	items *cache.Cache
	seq   atomic.Uint64
	log   logrus.FieldLogger
}

// NewBoard creates a board whose entries expire after dismissAfter.
// A non-positive value uses DefaultDismissAfter.
func NewBoard(dismissAfter time.Duration, log logrus.FieldLogger) *Board {
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissAfter
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Board{
		items: cache.New(dismissAfter, dismissAfter*2),
		log:   log,
	}
}

func (b *Board) Notify(message string, severity Severity) {
	n := Notification{
		ID:        b.seq.Add(1),
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	b.items.SetDefault(fmt.Sprintf("%020d", n.ID), n)

	entry := b.log.WithField("severity", severity)
	if severity == SeverityError {
		entry.Warn(message)
	} else {
		entry.Info(message)
	}
}

// Active lists notifications that have not yet been dismissed, newest first.
func (b *Board) Active() []Notification {
	items := b.items.Items()
	out := make([]Notification, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(Notification); ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Latest returns the most recent active notification.
func (b *Board) Latest() (Notification, bool) {
	active := b.Active()
	if len(active) == 0 {
		return Notification{}, false
	}
	return active[0], true
}

// Dismiss removes a notification before it expires.
func (b *Board) Dismiss(id uint64) {
	b.items.Delete(fmt.Sprintf("%020d", id))
}

// Discard drops every message; useful where no UI is attached.
type Discard struct{}

func (Discard) Notify(string, Severity) {}

var (
	_ Notifier = (*Board)(nil)
	_ Notifier = Discard{}
)
