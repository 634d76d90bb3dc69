package page

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/sirupsen/logrus"
)

const defaultLoadTimeout = 20 * time.Second

// HTTPLoader fetches pages with a plain HTTP client. It sees the server-rendered
// markup only, which is enough for the fallback selectors and the data-asin lookup.
type HTTPLoader struct {
	userAgent string
	cookies   []*http.Cookie
	timeout   time.Duration
}

// NewHTTPLoader creates a loader that sends the given cookies with every request.
func NewHTTPLoader(userAgent string, cookies []*http.Cookie, timeout time.Duration) *HTTPLoader {
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	return &HTTPLoader{userAgent: userAgent, cookies: cookies, timeout: timeout}
}

func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	c := colly.NewCollector(
		colly.UserAgent(l.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(10*1024*1024),
	)
	c.SetRequestTimeout(l.timeout)

	if len(l.cookies) > 0 {
		if err := c.SetCookies(rawURL, l.cookies); err != nil {
			return Page{}, fmt.Errorf("set cookies: %w", err)
		}
	}

	var (
		result  Page
		loadErr error
	)

	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			loadErr = fmt.Errorf("parse page markup: %w", err)
			return
		}
		result = Page{URL: r.Request.URL, Doc: doc, Cookies: l.cookies}
	})

	c.OnError(func(r *colly.Response, err error) {
		logrus.WithFields(logrus.Fields{
			"url":    rawURL,
			"status": r.StatusCode,
		}).WithError(err).Warn("Page load failed")
		loadErr = fmt.Errorf("load %s: %w", rawURL, err)
	})

	if err := c.Visit(rawURL); err != nil && loadErr == nil {
		loadErr = fmt.Errorf("visit %s: %w", rawURL, err)
	}
	if loadErr != nil {
		return Page{}, loadErr
	}
	if result.URL == nil {
		return Page{}, fmt.Errorf("load %s: empty response", rawURL)
	}

	return result, nil
}

var _ Loader = (*HTTPLoader)(nil)
