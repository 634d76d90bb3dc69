// Package bridge carries scrape requests from the coordinator to the page
// context. Requests are typed, answered asynchronously and limited to one in
// flight at a time.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/mrlokans/jelu-importer/internal/entities"
	"github.com/mrlokans/jelu-importer/internal/extractor"
	"github.com/mrlokans/jelu-importer/internal/page"
)

type Kind string

// KindScrapeBook asks the page context for the record of the page at URL.
const KindScrapeBook Kind = "scrapeBook"

var (
	ErrUnknownRequest = errors.New("unknown bridge request")
	ErrClosed         = errors.New("bridge is closed")
)

type Request struct {
	Kind Kind   `json:"action"`
	URL  string `json:"url"`
}

// Response carries the record, or nil when the page yielded none.
type Response struct {
	Record *entities.BookRecord `json:"record"`
}

// Handler answers requests on the serving goroutine.
type Handler interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan result
}

type result struct {
	resp Response
	err  error
}

type Bridge struct {
	handler  Handler
	requests chan envelope
	inFlight *semaphore.Weighted

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Bridge that hands requests to handler. Call Serve to start
// answering them.
func New(handler Handler) *Bridge {
	return &Bridge{
		handler:  handler,
		requests: make(chan envelope),
		inFlight: semaphore.NewWeighted(1),
		done:     make(chan struct{}),
	}
}

// Serve answers requests until ctx is cancelled, then closes the bridge.
func (b *Bridge) Serve(ctx context.Context) {
	defer b.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.requests:
			resp, err := b.handler.Handle(env.ctx, env.req)
			env.reply <- result{resp: resp, err: err}
		}
	}
}

// Close stops accepting requests. Pending senders receive ErrClosed.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Send delivers req and waits for its answer. A second caller waits until the
// first request has been answered.
func (b *Bridge) Send(ctx context.Context, req Request) (Response, error) {
	if req.Kind != KindScrapeBook {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownRequest, req.Kind)
	}

	if err := b.inFlight.Acquire(ctx, 1); err != nil {
		return Response{}, err
	}
	defer b.inFlight.Release(1)

	env := envelope{ctx: ctx, req: req, reply: make(chan result, 1)}
	select {
	case b.requests <- env:
	case <-b.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case r := <-env.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Scrape is Send for a scrapeBook request.
func (b *Bridge) Scrape(ctx context.Context, rawURL string) (*entities.BookRecord, error) {
	resp, err := b.Send(ctx, Request{Kind: KindScrapeBook, URL: rawURL})
	if err != nil {
		return nil, err
	}
	return resp.Record, nil
}

// PageHandler loads the page and runs the extractor on it. Pages that are
// not applicable are answered with a nil record.
type PageHandler struct {
	Loader    page.Loader
	Extractor *extractor.Extractor
	Log       logrus.FieldLogger
}

func (h PageHandler) Handle(ctx context.Context, req Request) (Response, error) {
	p, err := h.Loader.Load(ctx, req.URL)
	if err != nil {
		return Response{}, fmt.Errorf("failed to load page: %w", err)
	}

	record, err := h.Extractor.Extract(ctx, p)
	if err != nil {
		if h.Log != nil {
			h.Log.WithError(err).WithField("url", req.URL).Debug("No record on page")
		}
		return Response{}, nil
	}
	return Response{Record: record}, nil
}

var _ Handler = PageHandler{}
