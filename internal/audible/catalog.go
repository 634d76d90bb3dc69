package audible

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.audible.com"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	defaultTimeout = 15 * time.Second
)

// ResponseGroups is the fixed set of catalog response groups requested for every product.
var ResponseGroups = []string{
	"contributors",
	"media",
	"product_attrs",
	"product_desc",
	"product_details",
	"product_extended_attrs",
	"rating",
	"series",
}

// CoverSizes lists product image sizes in descending order of preference.
var CoverSizes = []string{"500", "300", "180", "100"}

// CatalogClient reads product details from the Audible catalog API.
type CatalogClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// Option configures a CatalogClient.
type Option func(*CatalogClient)

// WithBaseURL points the client at a different catalog host.
func WithBaseURL(baseURL string) Option {
	return func(c *CatalogClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent overrides the User-Agent sent with catalog requests.
func WithUserAgent(ua string) Option {
	return func(c *CatalogClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit caps outgoing catalog requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *CatalogClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *CatalogClient) {
		c.httpClient = hc
	}
}

// NewCatalogClient creates a catalog client with a 2 req/s limit.
func NewCatalogClient(opts ...Option) *CatalogClient {
	c := &CatalogClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Product fetches a single product by ASIN. Cookies from the page session are
// forwarded so region and account specific catalogs resolve the same way they
// do in the browser.
func (c *CatalogClient) Product(ctx context.Context, asin string, cookies []*http.Cookie) (*Product, error) {
	if asin == "" {
		return nil, ErrEmptyASIN
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	productURL := fmt.Sprintf("%s/1.0/catalog/products/%s?response_groups=%s",
		c.baseURL, url.PathEscape(asin), strings.Join(ResponseGroups, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", asin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope productResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", asin, err)
	}
	if envelope.Product == nil {
		return nil, fmt.Errorf("product %s: %w", asin, ErrMissingProduct)
	}

	return envelope.Product, nil
}

// Product is the subset of the catalog product document the importer uses.
// Every field is optional.
type Product struct {
	ASIN             string            `json:"asin"`
	Title            string            `json:"title"`
	Subtitle         string            `json:"subtitle"`
	Authors          []Contributor     `json:"authors"`
	Narrators        []Contributor     `json:"narrators"`
	PublisherSummary string            `json:"publisher_summary"`
	EditorialReview  string            `json:"editorial_review"`
	ProductImages    map[string]string `json:"product_images"`
	Series           []SeriesEntry     `json:"series"`
	IssueDate        string            `json:"issue_date"`
	ReleaseDate      string            `json:"release_date"`
	PublisherName    string            `json:"publisher_name"`
	Language         string            `json:"language"`
	RuntimeLengthMin int               `json:"runtime_length_min"`
}

type Contributor struct {
	ASIN string `json:"asin"`
	Name string `json:"name"`
}

type SeriesEntry struct {
	ASIN     string `json:"asin"`
	Title    string `json:"title"`
	Sequence string `json:"sequence"`
}

type productResponse struct {
	Product *Product `json:"product"`
}

// LargestCover returns the first image present in CoverSizes order, or "".
func (p *Product) LargestCover() string {
	for _, size := range CoverSizes {
		if img := p.ProductImages[size]; img != "" {
			return img
		}
	}
	return ""
}

// Summary prefers the publisher summary over the editorial review.
func (p *Product) Summary() string {
	if p.PublisherSummary != "" {
		return p.PublisherSummary
	}
	return p.EditorialReview
}

// Names flattens contributors to display names, keeping provider order and duplicates.
func Names(contributors []Contributor) []string {
	names := make([]string, 0, len(contributors))
	for _, c := range contributors {
		names = append(names, c.Name)
	}
	return names
}
