package extractor

import (
	"strings"

	"github.com/mrlokans/jelu-importer/internal/entities"
	"github.com/mrlokans/jelu-importer/internal/page"
)

const (
	titleSelector = "h1.bc-heading, h1"
	coverSelector = `img[src*="images-na.ssl-images-amazon.com"], img[src*="m.media-amazon.com"]`
)

// Fallback builds a minimal record from the rendered page. It never fails.
func Fallback(p page.Page, asin string) entities.BookRecord {
	record := entities.BookRecord{
		ID:        asin,
		SourceURL: p.String(),
		Authors:   []string{},
		Narrators: []string{},
	}

	record.Title = strings.TrimSpace(p.Find(titleSelector).First().Text())

	if src, ok := p.Find(coverSelector).First().Attr("src"); ok {
		record.CoverImageURL = absolute(p, src)
	}

	return record
}

// absolute resolves protocol-relative and relative image sources against the page.
func absolute(p page.Page, src string) string {
	src = strings.TrimSpace(src)
	if p.URL == nil || src == "" {
		return src
	}
	ref, err := p.URL.Parse(src)
	if err != nil {
		return src
	}
	return ref.String()
}
