// Package runtime wires marketplace dependencies and manages the server
// lifecycle.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/camp-network/marketplace/internal/analytics"
	"github.com/camp-network/marketplace/internal/app/httpapi"
	"github.com/camp-network/marketplace/internal/app/metrics"
	"github.com/camp-network/marketplace/internal/app/services/campers"
	"github.com/camp-network/marketplace/internal/app/services/market"
	"github.com/camp-network/marketplace/internal/app/services/rwa"
	"github.com/camp-network/marketplace/internal/app/services/sponsors"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/internal/app/storage/memory"
	"github.com/camp-network/marketplace/internal/app/storage/postgres"
	"github.com/camp-network/marketplace/internal/auth"
	"github.com/camp-network/marketplace/internal/config"
	"github.com/camp-network/marketplace/internal/docstore"
	"github.com/camp-network/marketplace/internal/fixtures"
	"github.com/camp-network/marketplace/internal/middleware"
	"github.com/camp-network/marketplace/internal/wallet"
	"github.com/camp-network/marketplace/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg       *config.Config
	log       *logger.Logger
	server    *http.Server
	store     storage.Store
	market    *market.Service
	refresher *market.Refresher
	realtime  *docstore.Realtime
	stopRL    func()
	db        *sql.DB
}

// NewApplication constructs the application from loaded configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig constructs the application from an explicit
// configuration, primarily for tests.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	store, db, err := buildStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure storage: %w", err)
	}

	if cfg.Storage.Mode == "memory" && cfg.Storage.Seed {
		if err := fixtures.Seed(context.Background(), store); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
		log.Info("memory store seeded with fixtures")
	}

	marketSvc := market.NewService(store, log.WithField("service", "market"))
	svc := httpapi.Services{
		Market:   marketSvc,
		Campers:  campers.NewService(store, log.WithField("service", "campers")),
		Sponsors: sponsors.NewService(store, log.WithField("service", "sponsors")),
		RWA:      rwa.NewService(store, log.WithField("service", "rwa")),
	}

	if cfg.Analytics.Enabled && cfg.Analytics.Endpoint != "" {
		svc.Tracker = analytics.New(analytics.Config{
			Endpoint: cfg.Analytics.Endpoint,
			Enabled:  true,
		}, log.WithField("component", "analytics"))
	}

	if cfg.Wallet.RPCURL != "" {
		provider := wallet.NewRPCProvider(wallet.RPCConfig{
			URL:          cfg.Wallet.RPCURL,
			PollInterval: time.Duration(cfg.Wallet.PollIntervalSeconds) * time.Second,
		})
		svc.Wallet = wallet.NewService(provider, log.WithField("service", "wallet"))
	}

	var authMW *auth.Middleware
	if cfg.Auth.URL != "" {
		authSvc, err := auth.NewService(auth.Config{
			URL:       cfg.Auth.URL,
			APIKey:    cfg.Auth.APIKey,
			JWTSecret: cfg.Auth.JWTSecret,
		}, nil, log.WithField("service", "auth"))
		if err != nil {
			return nil, fmt.Errorf("configure auth: %w", err)
		}
		authMW = auth.NewMiddleware(authSvc)
	}

	handler := httpapi.NewHandler(svc, authMW, log.WithField("component", "httpapi"))

	rl := middleware.NewRateLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst, log.WithField("component", "ratelimit"))
	stopRL := rl.StartCleanup(time.Minute)

	cors := middleware.NewCORS(cfg.HTTP.AllowedOrigins)
	root := cors.Handler(rl.Handler(handler))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	refresher := market.NewRefresher(30*time.Second, func(ctx context.Context) error {
		err := marketSvc.RefreshTrending(ctx)
		metrics.RecordPriceRefresh(err == nil)
		return err
	}, log.WithField("component", "refresher"))

	var realtime *docstore.Realtime
	if cfg.Storage.Mode == "docstore" {
		key := cfg.Docstore.ServiceKey
		if key == "" {
			key = cfg.Docstore.APIKey
		}
		realtime = docstore.NewRealtime(cfg.Docstore.URL, key)
	}

	return &Application{
		cfg:       cfg,
		log:       log,
		server:    server,
		store:     store,
		market:    marketSvc,
		refresher: refresher,
		realtime:  realtime,
		stopRL:    stopRL,
		db:        db,
	}, nil
}

func buildStore(cfg *config.Config, log *logger.Logger) (storage.Store, *sql.DB, error) {
	switch cfg.Storage.Mode {
	case "", "memory":
		return memory.New(), nil, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.Storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Storage.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
		}
		if cfg.Storage.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
		}
		if cfg.Storage.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(time.Duration(cfg.Storage.ConnMaxLifetime) * time.Second)
		}
		return postgres.New(db), db, nil

	case "docstore":
		key := cfg.Docstore.ServiceKey
		if key == "" {
			key = cfg.Docstore.APIKey
		}
		client, err := docstore.New(docstore.Config{URL: cfg.Docstore.URL, APIKey: key})
		if err != nil {
			return nil, nil, fmt.Errorf("configure docstore: %w", err)
		}
		log.WithField("url", cfg.Docstore.URL).Info("using docstore backend")
		return docstore.NewStore(client), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}
}

// Store exposes the configured backend, primarily for seeding tools.
func (a *Application) Store() storage.Store {
	return a.store
}

// Run starts the HTTP server and market refresher, blocking until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	a.refresher.Start(ctx)
	a.startRealtime(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// startRealtime subscribes the trending shelf to agent changes on the
// docstore change feed. Connection failure degrades to interval-only
// refreshes.
func (a *Application) startRealtime(ctx context.Context) {
	if a.realtime == nil {
		return
	}
	if err := a.realtime.Connect(ctx); err != nil {
		a.log.WithError(err).Warn("realtime feed unavailable, falling back to interval refresh")
		return
	}
	_, err := a.realtime.Watch(ctx, docstore.CollectionAgents, func(docstore.ChangeEvent) {
		if err := a.market.RefreshTrending(context.Background()); err != nil {
			a.log.WithError(err).Warn("trending refresh after agent change failed")
		}
	})
	if err != nil {
		a.log.WithError(err).Warn("agents watch not established")
		return
	}
	a.log.Info("realtime agents feed connected")
}

// Shutdown gracefully stops the server, refresher, and storage backend.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	a.refresher.Stop()
	a.stopRL()
	if a.realtime != nil {
		if err := a.realtime.Close(); err != nil {
			a.log.WithError(err).Warn("realtime close")
		}
	}

	var firstErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		firstErr = err
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
