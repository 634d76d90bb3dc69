// Package page provides the read-only view of a provider product page that the
// extractor works against, plus loaders that produce it.
package page

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a snapshot of a rendered page: its address, its DOM and the cookies
// that were in effect when it was loaded.
type Page struct {
	URL     *url.URL
	Doc     *goquery.Document
	Cookies []*http.Cookie
}

// Loader produces a Page for an absolute URL.
type Loader interface {
	Load(ctx context.Context, rawURL string) (Page, error)
}

// FromHTML builds a Page from already-fetched markup.
func FromHTML(rawURL, markup string, cookies []*http.Cookie) (Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Page{}, fmt.Errorf("parse page markup: %w", err)
	}
	return Page{URL: u, Doc: doc, Cookies: cookies}, nil
}

// Path returns the URL path, or "" for a page without an address.
func (p Page) Path() string {
	if p.URL == nil {
		return ""
	}
	return p.URL.Path
}

// String returns the absolute page address.
func (p Page) String() string {
	if p.URL == nil {
		return ""
	}
	return p.URL.String()
}

// Find runs a CSS selector against the document. A page without a document
// behaves like an empty one.
func (p Page) Find(selector string) *goquery.Selection {
	if p.Doc == nil {
		return new(goquery.Selection)
	}
	return p.Doc.Find(selector)
}

// IsProviderHost reports whether the address belongs to an Audible storefront.
func IsProviderHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), "audible.")
}

// ParseCookieHeader turns a "name=value; other=value" header into cookies.
func ParseCookieHeader(header string) []*http.Cookie {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	req := http.Request{Header: http.Header{"Cookie": {header}}}
	return req.Cookies()
}
