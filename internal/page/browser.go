package page

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// BrowserLoader renders pages in headless Chrome so client-side markup is
// present, matching what the user sees in the storefront.
type BrowserLoader struct {
	userAgent string
	cookies   []*http.Cookie
	timeout   time.Duration
}

func NewBrowserLoader(userAgent string, cookies []*http.Cookie, timeout time.Duration) *BrowserLoader {
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	return &BrowserLoader{userAgent: userAgent, cookies: cookies, timeout: timeout}
}

func (l *BrowserLoader) Load(ctx context.Context, rawURL string) (Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(logrus.Debugf))
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, l.timeout)
	defer cancelTimeout()

	var markup, location string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, fmt.Errorf("render %s: %w", rawURL, err)
	}

	logrus.WithFields(logrus.Fields{
		"url":      rawURL,
		"location": location,
		"bytes":    len(markup),
	}).Debug("Rendered page")

	if location == "" {
		location = rawURL
	}
	return FromHTML(location, markup, l.cookies)
}

var _ Loader = (*BrowserLoader)(nil)
