package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/audible"
	"github.com/mrlokans/jelu-importer/internal/audit"
	"github.com/mrlokans/jelu-importer/internal/bridge"
	"github.com/mrlokans/jelu-importer/internal/config"
	"github.com/mrlokans/jelu-importer/internal/coordinator"
	"github.com/mrlokans/jelu-importer/internal/extractor"
	http_controllers "github.com/mrlokans/jelu-importer/internal/http"
	"github.com/mrlokans/jelu-importer/internal/jelu"
	"github.com/mrlokans/jelu-importer/internal/notify"
	"github.com/mrlokans/jelu-importer/internal/page"
	"github.com/mrlokans/jelu-importer/internal/scheduler"
	"github.com/mrlokans/jelu-importer/internal/sessionstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is a fully wired importer: page pipeline, library session and
// coordinator. Commands build one, use it and Close it.
type App struct {
	Config      *config.Config
	Log         logrus.FieldLogger
	Store       *sessionstore.Store
	Bridge      *bridge.Bridge
	Board       *notify.Board
	Coordinator *coordinator.Coordinator

	cancel context.CancelFunc
}

// NewLoader picks the page loader named by cfg.Loader.
func NewLoader(cfg config.Page) (page.Loader, error) {
	cookies := page.ParseCookieHeader(cfg.Cookies)
	switch cfg.Loader {
	case "", config.PageLoaderHTTP:
		return page.NewHTTPLoader(cfg.UserAgent, cookies, cfg.Timeout), nil
	case config.PageLoaderBrowser:
		return page.NewBrowserLoader(cfg.UserAgent, cookies, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown page loader %q (expected %q or %q)", cfg.Loader, config.PageLoaderHTTP, config.PageLoaderBrowser)
	}
}

// NewCatalog builds the catalog client from cfg.
func NewCatalog(cfg config.Catalog, userAgent string) *audible.CatalogClient {
	opts := []audible.Option{
		audible.WithRateLimit(cfg.RequestsPerSecond),
		audible.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, audible.WithBaseURL(cfg.BaseURL))
	}
	if userAgent != "" {
		opts = append(opts, audible.WithUserAgent(userAgent))
	}
	return audible.NewCatalogClient(opts...)
}

// NewConnector returns a Connector producing Jelu clients with the given settings.
func NewConnector(cfg config.Library, log logrus.FieldLogger) coordinator.Connector {
	return func(baseURL string, mode jelu.AuthMode) coordinator.Library {
		opts := []jelu.Option{jelu.WithLogger(log)}
		if cfg.Timeout > 0 {
			opts = append(opts, jelu.WithTimeout(cfg.Timeout))
		}
		return jelu.NewClient(baseURL, mode, opts...)
	}
}

// Build wires an App. The bridge starts serving immediately.
func Build(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	store, err := sessionstore.New(sessionstore.Config{
		DatabasePath:  cfg.Database.Path,
		EncryptionKey: cfg.Session.EncryptionKey,
		KeyFilePath:   cfg.Session.KeyFilePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	loader, err := NewLoader(cfg.Page)
	if err != nil {
		store.Close()
		return nil, err
	}

	ext := extractor.New(NewCatalog(cfg.Catalog, cfg.Page.UserAgent), log.WithField("component", "extractor"))
	br := bridge.New(bridge.PageHandler{
		Loader:    loader,
		Extractor: ext,
		Log:       log.WithField("component", "bridge"),
	})

	board := notify.NewBoard(cfg.Notify.DismissAfter, log.WithField("component", "notify"))

	opts := []coordinator.Option{
		coordinator.WithSessionStore(store),
		coordinator.WithNotifier(board),
		coordinator.WithLogger(log.WithField("component", "coordinator")),
	}
	if cfg.Audit.Enabled {
		opts = append(opts, coordinator.WithAuditor(audit.NewAuditor(cfg.Audit.Dir)))
	}
	coord := coordinator.New(br, NewConnector(cfg.Library, log.WithField("component", "jelu")), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go br.Serve(ctx)

	return &App{
		Config:      cfg,
		Log:         log,
		Store:       store,
		Bridge:      br,
		Board:       board,
		Coordinator: coord,
		cancel:      cancel,
	}, nil
}

// Close stops the bridge and closes the session store.
func (a *App) Close() {
	a.cancel()
	if err := a.Store.Close(); err != nil {
		a.Log.WithError(err).Warn("Error closing session store")
	}
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then calls onShutdown
// and drains the server within the configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.WithField("timeout", timeout).Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server exiting")
	return nil
}

// Run wires the application, restores any saved session, starts session
// revalidation when enabled and serves the API until shutdown.
func Run(cfg *config.Config, log logrus.FieldLogger, version string) error {
	log.WithField("version", version).Info("Starting Jelu importer")

	app, err := Build(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), cfg.Library.Timeout+5*time.Second)
	restored, err := app.Coordinator.RestoreSession(restoreCtx)
	cancelRestore()
	if err != nil {
		log.WithError(err).Warn("Could not restore saved session")
	} else if !restored {
		log.Info("No saved session. Log in via POST /api/session")
	}

	var revalidator *scheduler.SessionRevalidator
	if cfg.Session.RevalidateEnabled {
		revalidator = scheduler.NewSessionRevalidator(app.Coordinator, cfg.Session.RevalidateSchedule, log)
		if err := revalidator.Start(context.Background()); err != nil {
			return err
		}
	} else {
		log.Info("Session revalidation disabled")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Coordinator:   app.Coordinator,
		Notifications: app.Board,
		Database:      app.Store.Database(),
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		if revalidator != nil {
			revalidator.Stop()
		}
	}

	return Serve(router, cfg, log, onShutdown)
}
