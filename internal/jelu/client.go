// Package jelu talks to a self-hosted Jelu library server: session token
// lifecycle, duplicate lookup by ASIN, record import and cover upload.
package jelu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/entities"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
	maxCoverBytes  = 10 << 20
	coverFileName  = "cover.jpg"
)

// Client is safe for concurrent use. The cached token is guarded by a mutex;
// when it is cleared the client falls back to the retained basic credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        logrus.FieldLogger

	mu       sync.Mutex
	username string
	password string
	token    string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCredentials retains basic credentials for when a token-authenticated
// client has to fall back.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for the server at baseURL. Trailing slashes are removed.
func NewClient(baseURL string, mode AuthMode, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		log:        logrus.StandardLogger(),
	}

	switch m := mode.(type) {
	case Basic:
		c.username, c.password = m.Username, m.Password
	case Token:
		c.token = m.Value
	}

	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("jelu", c.baseURL)
	return c
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Username returns the account name the client was created for.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Token returns the cached session token, or "" when none is held.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Mode returns the credential the next request will use.
func (c *Client) Mode() AuthMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

func (c *Client) modeLocked() AuthMode {
	if c.token != "" {
		return Token{Value: c.token}
	}
	return Basic{Username: c.username, Password: c.password}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// clearToken drops the cached token only if it is still the one a rejected
// request was sent with.
func (c *Client) clearToken(rejected AuthMode) {
	t, ok := rejected.(Token)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == t.Value {
		c.token = ""
		c.log.Debug("Session token rejected, falling back to basic credentials")
	}
}

// BookURL is the address of a user book in the library's web UI.
func (c *Client) BookURL(id string) string {
	return c.baseURL + "/books/" + url.PathEscape(id)
}

// FetchToken exchanges the current credential for a session token and caches it.
func (c *Client) FetchToken(ctx context.Context) (string, bool) {
	var resp tokenResponse
	if err := c.getJSON(ctx, "/api/v1/token", &resp); err != nil {
		c.log.WithError(err).Warn("Token retrieval failed")
		return "", false
	}
	if resp.Token == "" {
		return "", false
	}
	c.setToken(resp.Token)
	return resp.Token, true
}

// TestConnection reports whether the server accepts the client's credentials.
// A rejected token is discarded and basic credentials are tried; a successful
// basic check also obtains a fresh token.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c.Token() != "" {
		err := c.getJSON(ctx, "/api/v1/users/me", nil)
		if err == nil {
			return true
		}
		c.log.WithError(err).Debug("Token check failed")
		c.setToken("")
	}

	if err := c.getJSON(ctx, "/api/v1/books?page=0&size=1", nil); err != nil {
		c.log.WithError(err).Info("Connection test failed")
		return false
	}

	c.FetchToken(ctx)
	return true
}

// FindExisting searches the user's books for one whose amazonId equals asin
// exactly. It returns nil, nil when there is no match.
func (c *Client) FindExisting(ctx context.Context, asin string) (*entities.ExistingBook, error) {
	if asin == "" {
		return nil, ErrEmptyIdentifier
	}

	var page userBookPage
	if err := c.getJSON(ctx, "/api/v1/userbooks?q="+url.QueryEscape(asin), &page); err != nil {
		return nil, err
	}

	for _, ub := range page.Content {
		if ub.Book == nil || ub.Book.AmazonID != asin {
			continue
		}
		return &entities.ExistingBook{
			ID:       string(ub.ID),
			BookID:   string(ub.Book.ID),
			Title:    ub.Book.Title,
			AmazonID: ub.Book.AmazonID,
		}, nil
	}
	return nil, nil
}

// ImportRecord creates an owned user book from record. When the record has a
// cover and the server returned a book id, the cover is uploaded best-effort;
// its failure does not fail the import.
func (c *Client) ImportRecord(ctx context.Context, record entities.BookRecord) (*entities.ImportedBook, error) {
	payload := BuildPayload(record)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import payload: %w", err)
	}

	var created userBookResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/userbooks", bytes.NewReader(body), &created); err != nil {
		return nil, err
	}

	imported := &entities.ImportedBook{ID: string(created.ID), Title: record.Title}
	if created.Book != nil {
		imported.BookID = string(created.Book.ID)
		if created.Book.Title != "" {
			imported.Title = created.Book.Title
		}
	}

	log := c.log.WithFields(logrus.Fields{"asin": record.ID, "user_book_id": imported.ID})
	log.Info("Imported book")

	if record.CoverImageURL != "" && imported.BookID != "" {
		imported.CoverStored = c.UploadCover(ctx, imported.BookID, record.CoverImageURL)
		if !imported.CoverStored {
			log.Warn("Cover upload failed, book imported without stored cover")
		}
	}

	return imported, nil
}

// UploadCover downloads imageURL and stores it as the book's cover. Any
// failure yields false; there is no retry.
func (c *Client) UploadCover(ctx context.Context, bookID, imageURL string) bool {
	image, err := c.download(ctx, imageURL)
	if err != nil {
		c.log.WithError(err).WithField("image", imageURL).Warn("Cover download failed")
		return false
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", coverFileName)
	if err != nil {
		return false
	}
	if _, err := part.Write(image); err != nil {
		return false
	}
	if err := writer.Close(); err != nil {
		return false
	}

	path := "/api/v1/books/" + url.PathEscape(bookID) + "/image"
	resp, mode, err := c.send(ctx, http.MethodPost, path, &buf, writer.FormDataContentType())
	if err != nil {
		c.log.WithError(err).Warn("Cover upload failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken(mode)
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "download cover", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, &TransportError{Op: "read cover", Err: err}
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON performs an authenticated JSON request and decodes a 2xx body into
// out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	resp, mode, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.clearToken(mode)
		}
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// send attaches exactly one credential header and returns the mode it used so
// a 401 can be attributed to it.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, AuthMode, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	mode := c.Mode()
	name, value := HeaderFor(mode)
	req.Header.Set(name, value)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mode, &TransportError{Op: method + " " + path, Err: err}
	}
	return resp, mode, nil
}
