package jelu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/mrlokans/jelu-importer/internal/entities"
	"github.com/mrlokans/jelu-importer/internal/htmltext"
)

const defaultLanguage = "en"

// Tags attached to every imported record.
var importTags = []string{"Audiobook", "Audible"}

var leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)`)

// NamedEntity is the {name} shape used for authors, narrators and tags.
type NamedEntity struct {
	Name string `json:"name"`
}

// SeriesPayload places a book in a series.
type SeriesPayload struct {
	Name           string   `json:"name"`
	NumberInSeries *float64 `json:"numberInSeries"`
}

// BookPayload is the book part of a user book creation request.
type BookPayload struct {
	Title          string          `json:"title"`
	ISBN10         *string         `json:"isbn10"`
	ISBN13         *string         `json:"isbn13"`
	Summary        string          `json:"summary"`
	Publisher      *string         `json:"publisher"`
	PublishedDate  *string         `json:"publishedDate"`
	PageCount      *int            `json:"pageCount"`
	GoodreadsID    *string         `json:"goodreadsId"`
	GoogleID       *string         `json:"googleId"`
	LibrarythingID *string         `json:"librarythingId"`
	AmazonID       *string         `json:"amazonId"`
	Language       string          `json:"language"`
	Authors        []NamedEntity   `json:"authors"`
	Narrators      []NamedEntity   `json:"narrators"`
	Tags           []NamedEntity   `json:"tags"`
	Image          *string         `json:"image"`
	Series         []SeriesPayload `json:"series,omitempty"`
}

// UserBookPayload is the body of POST /api/v1/userbooks.
type UserBookPayload struct {
	Book          BookPayload `json:"book"`
	Owned         bool        `json:"owned"`
	PersonalNotes string      `json:"personalNotes"`
}

// BuildPayload maps a record onto the library's creation request.
func BuildPayload(record entities.BookRecord) UserBookPayload {
	book := BookPayload{
		Title:         record.Title,
		Summary:       htmltext.Strip(record.Summary),
		Publisher:     optional(record.Publisher),
		PublishedDate: optional(record.PublishDate),
		AmazonID:      optional(record.ID),
		Language:      record.Language,
		Authors:       named(record.Authors),
		Narrators:     named(record.Narrators),
		Tags:          named(importTags),
		Image:         optional(record.CoverImageURL),
	}
	if book.Language == "" {
		book.Language = defaultLanguage
	}

	if record.Series != "" {
		book.Series = []SeriesPayload{{
			Name:           record.Series,
			NumberInSeries: seriesNumber(record.SeriesPosition),
		}}
	}

	return UserBookPayload{
		Book:          book,
		Owned:         true,
		PersonalNotes: PersonalNotes(record),
	}
}

// PersonalNotes is the provenance note stored with every imported book.
func PersonalNotes(record entities.BookRecord) string {
	return fmt.Sprintf("Imported from Audible\nASIN: %s\nSource: %s", record.ID, record.SourceURL)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func named(values []string) []NamedEntity {
	out := make([]NamedEntity, 0, len(values))
	for _, v := range values {
		out = append(out, NamedEntity{Name: v})
	}
	return out
}

// seriesNumber reads the leading number of a position such as "2", "1.5" or
// "3, Dramatized". Positions without one yield nil.
func seriesNumber(position string) *float64 {
	m := leadingNumber.FindString(position)
	if m == "" {
		return nil
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &n
}

// flexID accepts identifiers encoded either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type bookResponse struct {
	ID       flexID `json:"id"`
	Title    string `json:"title"`
	AmazonID string `json:"amazonId"`
}

type userBookResponse struct {
	ID   flexID        `json:"id"`
	Book *bookResponse `json:"book"`
}

type userBookPage struct {
	Content []userBookResponse `json:"content"`
}

type tokenResponse struct {
	Token string `json:"token"`
}
