package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/user-records/internal/config"
	"github.com/wichananm65/user-records/internal/logging"
	"github.com/wichananm65/user-records/internal/metrics"
	"github.com/wichananm65/user-records/internal/server"
	"github.com/wichananm65/user-records/internal/user"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()

	repo, closeRepo, err := openRepository(ctx, cfg.Store, registry, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	userService := user.NewService(repo, cfg.MinAge, logger)
	userHandler := user.NewHandler(userService, user.NewValidator(), registry, logger)

	app := server.New(cfg, logger, registry, userHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("store", cfg.Store.Driver).
			Int("min_age", cfg.MinAge).
			Msg("starting http server")
		if err := app.Listen(cfg.Addr); err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down http server")
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	})

	return g.Wait()
}

// openRepository builds the configured record store and returns a function
// releasing its resources.
func openRepository(ctx context.Context, cfg config.StoreConfig, registry *metrics.Registry, logger zerolog.Logger) (user.Repository, func(), error) {
	switch cfg.Driver {
	case config.StorePostgres:
		db, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := user.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info().Msg("using postgres record store")
		return repo, func() { db.Close() }, nil
	default:
		repo := user.NewInMemoryRepository(nil)
		registry.TrackRecords(repo.Len)
		logger.Info().Msg("using in-memory record store")
		return repo, func() {}, nil
	}
}

func openDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
