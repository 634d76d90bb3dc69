package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/jelu-importer/internal/audible"
	"github.com/mrlokans/jelu-importer/internal/entities"
	"github.com/mrlokans/jelu-importer/internal/extractor"
	"github.com/mrlokans/jelu-importer/internal/page"
)

type handlerFunc func(ctx context.Context, req Request) (Response, error)

func (f handlerFunc) Handle(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

func startBridge(t *testing.T, h Handler) *Bridge {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	b := New(h)
	go b.Serve(ctx)
	t.Cleanup(cancel)
	return b
}

func TestBridge_Scrape(t *testing.T) {
	b := startBridge(t, handlerFunc(func(_ context.Context, req Request) (Response, error) {
		assert.Equal(t, KindScrapeBook, req.Kind)
		return Response{Record: &entities.BookRecord{ID: "B0C1234567", SourceURL: req.URL}}, nil
	}))

	record, err := b.Scrape(context.Background(), "https://www.audible.com/pd/x/B0C1234567")
	require.NoError(t, err)
	assert.Equal(t, "B0C1234567", record.ID)
	assert.Equal(t, "https://www.audible.com/pd/x/B0C1234567", record.SourceURL)
}

func TestBridge_UnknownRequest(t *testing.T) {
	b := startBridge(t, handlerFunc(func(context.Context, Request) (Response, error) {
		t.Error("handler must not be called")
		return Response{}, nil
	}))

	_, err := b.Send(context.Background(), Request{Kind: "deleteBook"})
	assert.ErrorIs(t, err, ErrUnknownRequest)
}

func TestBridge_OneInFlight(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var events []string

	b := startBridge(t, handlerFunc(func(_ context.Context, req Request) (Response, error) {
		mu.Lock()
		events = append(events, "start "+req.URL)
		mu.Unlock()
		if req.URL == "first" {
			<-release
		}
		mu.Lock()
		events = append(events, "end "+req.URL)
		mu.Unlock()
		return Response{}, nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := b.Scrape(context.Background(), "first")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, err := b.Scrape(context.Background(), "second")
		assert.NoError(t, err)
	}()

	select {
	case <-secondDone:
		t.Fatal("second request answered while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-secondDone

	assert.Equal(t, []string{"start first", "end first", "start second", "end second"}, events)
}

func TestBridge_ContextCancelledWhileWaiting(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	b := startBridge(t, handlerFunc(func(context.Context, Request) (Response, error) {
		<-block
		return Response{}, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := b.Scrape(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBridge_Closed(t *testing.T) {
	b := New(handlerFunc(func(context.Context, Request) (Response, error) {
		return Response{}, nil
	}))
	b.Close()

	_, err := b.Scrape(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}

type staticLoader struct {
	markup string
	err    error
}

func (l staticLoader) Load(_ context.Context, rawURL string) (page.Page, error) {
	if l.err != nil {
		return page.Page{}, l.err
	}
	return page.FromHTML(rawURL, l.markup, nil)
}

type failingCatalog struct{}

func (failingCatalog) Product(context.Context, string, []*http.Cookie) (*audible.Product, error) {
	return nil, errors.New("catalog unavailable")
}

func TestPageHandler(t *testing.T) {
	ex := extractor.New(failingCatalog{}, nil)

	t.Run("product page", func(t *testing.T) {
		h := PageHandler{Loader: staticLoader{markup: `<h1>Title</h1>`}, Extractor: ex}
		resp, err := h.Handle(context.Background(), Request{Kind: KindScrapeBook, URL: "https://www.audible.com/pd/T/B0C1234567"})
		require.NoError(t, err)
		require.NotNil(t, resp.Record)
		assert.Equal(t, "B0C1234567", resp.Record.ID)
		assert.Equal(t, "Title", resp.Record.Title)
	})

	t.Run("not applicable answers nil", func(t *testing.T) {
		h := PageHandler{Loader: staticLoader{markup: `<h1>Home</h1>`}, Extractor: ex}
		resp, err := h.Handle(context.Background(), Request{Kind: KindScrapeBook, URL: "https://www.audible.com/"})
		require.NoError(t, err)
		assert.Nil(t, resp.Record)
	})

	t.Run("load failure", func(t *testing.T) {
		h := PageHandler{Loader: staticLoader{err: errors.New("dns")}, Extractor: ex}
		_, err := h.Handle(context.Background(), Request{Kind: KindScrapeBook, URL: "https://www.audible.com/pd/T/B0C1234567"})
		assert.Error(t, err)
	})
}
