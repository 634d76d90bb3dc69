// Package extractor turns an Audible product page into a canonical BookRecord.
//
// Extraction tries the catalog API first and falls back to scraping the page
// itself, so once an identifier is known a record is always produced.
package extractor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/audible"
	"github.com/mrlokans/jelu-importer/internal/entities"
	"github.com/mrlokans/jelu-importer/internal/htmltext"
	"github.com/mrlokans/jelu-importer/internal/page"
)

var (
	// ErrNotProductPage means the page is not a product-detail page. Nothing was fetched.
	ErrNotProductPage = errors.New("not a product page")
	// ErrNoIdentifier means the page looked like a product page but carried no ASIN.
	ErrNoIdentifier = errors.New("no product identifier on page")
)

// IsNotApplicable reports whether err means "nothing to extract here" rather
// than a failure.
func IsNotApplicable(err error) bool {
	return errors.Is(err, ErrNotProductPage) || errors.Is(err, ErrNoIdentifier)
}

// CatalogSource looks up product details by ASIN.
type CatalogSource interface {
	Product(ctx context.Context, asin string, cookies []*http.Cookie) (*audible.Product, error)
}

// Extractor is stateless; one instance may serve any number of pages.
// Extractor turns a loaded product page into a BookRecord.
type Extractor struct {
	catalog CatalogSource
	log     logrus.FieldLogger
}

// New creates an Extractor backed by catalog. A nil log falls back to the
// standard logger.
func New(catalog CatalogSource, log logrus.FieldLogger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{catalog: catalog, log: log}
}

// Extract produces a record for the page. Not-applicable pages yield
// ErrNotProductPage or ErrNoIdentifier; every other outcome is a record.
func (e *Extractor) Extract(ctx context.Context, p page.Page) (*entities.BookRecord, error) {
	if !IsProductPage(p.Path()) {
		return nil, ErrNotProductPage
	}

	asin := ResolveIdentifier(p)
	if asin == "" {
		return nil, ErrNoIdentifier
	}

	log := e.log.WithFields(logrus.Fields{"asin": asin, "url": p.String()})

	product, err := e.catalog.Product(ctx, asin, p.Cookies)
	if err != nil {
		log.WithError(err).Warn("Catalog lookup failed, falling back to page scraping")
		record := Fallback(p, asin)
		return &record, nil
	}

	record := FromProduct(product, asin, p.String())
	log.WithField("title", record.Title).Debug("Extracted record from catalog")
	return &record, nil
}

// FromProduct maps a catalog product onto a record. Missing fields stay empty.
func FromProduct(product *audible.Product, asin, sourceURL string) entities.BookRecord {
	record := entities.BookRecord{
		ID:             asin,
		Title:          product.Title,
		Authors:        audible.Names(product.Authors),
		Narrators:      audible.Names(product.Narrators),
		Summary:        htmltext.Strip(product.Summary()),
		CoverImageURL:  product.LargestCover(),
		SourceURL:      sourceURL,
		Publisher:      product.PublisherName,
		PublishDate:    product.IssueDate,
		Language:       product.Language,
		RuntimeMinutes: product.RuntimeLengthMin,
	}

	if record.RuntimeMinutes < 0 {
		record.RuntimeMinutes = 0
	}

	if len(product.Series) > 0 {
		first := product.Series[0]
		record.Series = strings.TrimSpace(first.Title)
		if record.Series != "" {
			record.SeriesPosition = strings.TrimSpace(first.Sequence)
		}
	}

	return record
}
