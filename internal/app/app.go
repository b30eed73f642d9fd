package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog/pgstore"
	"github.com/gokatarajesh/cloud-architect-quest/internal/config"
	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
	"github.com/gokatarajesh/cloud-architect-quest/internal/logging"
	"github.com/gokatarajesh/cloud-architect-quest/internal/metrics"
	"github.com/gokatarajesh/cloud-architect-quest/internal/server"
	"github.com/gokatarajesh/cloud-architect-quest/internal/session"
	ws "github.com/gokatarajesh/cloud-architect-quest/pkg/http/ws"
)

// Application aggregates the catalog, session host and HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	store   *pgstore.Store
	http    *http.Server
	sweeper *session.Sweeper
}

// New bootstraps logger, catalog, session services and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info().Msg("starting application bootstrap")

	cat, store, err := LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("source", cfg.Catalog.Source).Int("scenarios", cat.Len()).Msg("catalog loaded")

	engine := game.NewEngine(cat, nil)
	m := metrics.New()
	hub := ws.NewHub(logger)
	manager := session.NewManager(engine, session.ManagerOptions{
		IdleTTL:   cfg.Session.IdleTTL,
		MaxActive: cfg.Session.MaxActive,
	})
	svc := session.NewService(engine, manager, hub, m, logger)
	handler := session.NewHandler(svc, hub, server.NewUpgrader(cfg.CORS.AllowedOrigins), logger)

	deps := map[string]server.Pinger{}
	if store != nil {
		deps["postgres"] = store
	}
	router := server.NewRouter(logger, server.Options{Metrics: m.Handler(), Dependencies: deps}, handler)

	return &Application{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		http:    server.NewHTTPServer(cfg, router),
		sweeper: session.NewSweeper(svc, cfg.Session.SweepInterval, logger),
	}, nil
}

// LoadCatalog reads scenario content from the configured source. The store is
// returned only for the postgres source and is owned by the caller.
func LoadCatalog(ctx context.Context, cfg *config.App, logger zerolog.Logger) (*catalog.Catalog, *pgstore.Store, error) {
	switch cfg.Catalog.Source {
	case config.CatalogFile:
		cat, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog file: %w", err)
		}
		return cat, nil, nil

	case config.CatalogPostgres:
		store, err := pgstore.Open(ctx, cfg.Postgres.DSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		cat, err := store.Load(ctx)
		if errors.Is(err, pgstore.ErrEmpty) {
			logger.Warn().Msg("catalog store empty, seeding bundled content")
			if cat, err = catalog.Default(); err == nil {
				err = store.Import(ctx, cat)
			}
		}
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("load catalog from postgres: %w", err)
		}
		return cat, store, nil

	default:
		cat, err := catalog.Default()
		if err != nil {
			return nil, nil, fmt.Errorf("load bundled catalog: %w", err)
		}
		return cat, nil, nil
	}
}

// Run serves until ctx is canceled or a component fails, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.sweeper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Info().Msg("shutdown complete")
	return err
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.cfg.GracefulShutdownTimeout > 0 {
		return a.cfg.GracefulShutdownTimeout
	}
	return 20 * time.Second
}
