// Package app initializes and runs the user facade service.
// It configures logging, the API client, the stores, the background
// refresher and routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/userfront/internal/apiclient"
	"github.com/patric-chuzhbe/userfront/internal/config"
	"github.com/patric-chuzhbe/userfront/internal/logger"
	"github.com/patric-chuzhbe/userfront/internal/refresher"
	"github.com/patric-chuzhbe/userfront/internal/router"
	"github.com/patric-chuzhbe/userfront/internal/settings"
	"github.com/patric-chuzhbe/userfront/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App owns the configuration, the stores and the HTTP handler of the facade.
type App struct {
	cfg         *config.Config
	client      *apiclient.Client
	store       *store.Store
	settings    *settings.Settings
	refresher   *refresher.Refresher
	httpHandler http.Handler
}

// New wires every component from the given configuration:
// - initializing logger
// - building the API client
// - creating the user store and the settings store
// - setting up the background refresher (attached to the store by Serve)
// - setting up the router and middleware
func New(cfg *config.Config) (*App, error) {
	var err error
	app := &App{cfg: cfg}

	err = logger.Init(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.client, err = apiclient.New(
		cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithLogger(logger.Log),
	)
	if err != nil {
		return nil, err
	}

	app.store = store.New(app.client, store.WithMissPolicy(store.ParseMissPolicy(cfg.UpdateMissPolicy)))

	app.settings, err = settings.New(cfg.DefaultLocale)
	if err != nil {
		return nil, err
	}

	app.refresher = refresher.New(
		app.store,
		cfg.RefreshQueueCapacity,
		cfg.RefreshInterval,
		refresher.WithPeriodic(cfg.PeriodicRefresh),
	)

	app.httpHandler = router.New(app.store, app.settings)

	return app, nil
}

// Store returns the user store, for one-shot commands that drive it directly.
func (a *App) Store() *store.Store {
	return a.store
}

// Handler returns the facade HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run performs the initial fetch, starts the refresher and serves the facade
// until a termination signal arrives. A failed initial fetch is logged and the
// service starts with an empty cache.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}

// Serve is Run with an explicit lifetime.
func (a *App) Serve(ctx context.Context) error {
	if _, err := a.store.FetchUsers(ctx); err != nil {
		logger.Log.Warnw("initial users fetch failed, starting with an empty cache", zap.Error(err))
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// Update misses are queued only while the refresher runs; outside Serve
	// the store refetches inline.
	a.store.AttachRefresher(a.refresher)
	defer a.store.AttachRefresher(nil)

	a.refresher.Run(groupCtx)
	listenerDone := a.refresher.ListenErrors(func(err error) {
		logger.Log.Warnw("background users refresh failed", zap.Error(err))
	})
	group.Go(func() error {
		<-listenerDone
		return nil
	})

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	group.Go(func() error {
		logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr, "APIBaseURL", a.client.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Log.Infoln("Received shutdown signal. Stopping the server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return group.Wait()
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
