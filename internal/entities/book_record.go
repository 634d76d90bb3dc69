package entities

// BookRecord is the canonical, provider-agnostic description of one title.
// Records are produced by the extractor and never modified afterwards.
type BookRecord struct {
	ID             string   `json:"id"` // provider ASIN, empty when extraction failed
	Title          string   `json:"title"`
	Authors        []string `json:"authors"`
	Narrators      []string `json:"narrators"`
	Summary        string   `json:"summary"`
	CoverImageURL  string   `json:"cover_image_url"`
	SourceURL      string   `json:"source_url"`
	Series         string   `json:"series,omitempty"`
	SeriesPosition string   `json:"series_position,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	PublishDate    string   `json:"publish_date,omitempty"`
	Language       string   `json:"language,omitempty"`
	RuntimeMinutes int      `json:"runtime_minutes,omitempty"`
}

// HasIdentifier reports whether the record can take part in deduplication and import.
func (r BookRecord) HasIdentifier() bool {
	return r.ID != ""
}

// Clone returns a deep copy so callers cannot alias the author/narrator slices.
func (r BookRecord) Clone() BookRecord {
	c := r
	if r.Authors != nil {
		c.Authors = append([]string(nil), r.Authors...)
	}
	if r.Narrators != nil {
		c.Narrators = append([]string(nil), r.Narrators...)
	}
	return c
}

// ExistingBook is a user book already present in the remote library.
type ExistingBook struct {
	ID       string `json:"id"`
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	AmazonID string `json:"amazon_id"`
}

// ImportedBook is the user book created by a successful import.
type ImportedBook struct {
	ID          string `json:"id"`
	BookID      string `json:"book_id"`
	Title       string `json:"title"`
	CoverStored bool   `json:"cover_stored"`
}
