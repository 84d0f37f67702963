package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reactor/backend/internal/repository"
	"reactor/backend/pkg/config"
	"reactor/backend/pkg/di"
	"reactor/backend/pkg/logger"
	"reactor/backend/pkg/router"
	"reactor/backend/pkg/secrets"
	"reactor/backend/shared/observability"
	sessions "reactor/backend/shared/redis"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reactor",
		Short:         "Reaction buttons backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the metrics endpoint and the health checker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.New())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			log := newLogger(cfg)

			if err := resolveSecrets(cmd.Context(), cfg, log); err != nil {
				log.LogError(err, "Failed to resolve secrets")
				return err
			}

			db, err := config.NewDB()
			if err != nil {
				log.LogError(err, "Failed to initialize database")
				return err
			}
			if err := config.TestConnection(db); err != nil {
				log.LogError(err, "Database is not reachable")
				return err
			}
			if err := repository.NewGormStore(db).Migrate(); err != nil {
				log.LogError(err, "Failed to migrate database")
				return err
			}
			log.Info("Database migrated")
			return nil
		},
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)
	return log
}

// resolveSecrets overrides credentials from Vault when it is configured
func resolveSecrets(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Vault.Address == "" {
		return nil
	}
	src, err := secrets.NewVaultSource(secrets.VaultConfigFrom(cfg), log)
	if err != nil {
		return err
	}
	return secrets.Apply(ctx, cfg, src, log)
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg)
	log.Info("Starting application", "env", cfg.Server.Env)

	if err := resolveSecrets(ctx, cfg, log); err != nil {
		log.LogError(err, "Failed to resolve secrets")
		return err
	}

	// Telemetry goes first so the ledger picks up the real meter provider
	telemetryCfg := observability.Config{ServiceName: router.ServiceName}
	if cfg.Server.TraceStdout {
		telemetryCfg.TraceOutput = os.Stdout
	}
	telemetry, err := observability.Setup(telemetryCfg)
	if err != nil {
		log.LogError(err, "Failed to initialize telemetry")
		return err
	}

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		return err
	}

	rc, err := sessions.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		log.LogError(err, "Failed to initialize redis client")
		return err
	}

	containerCfg, err := di.ConfigFrom(cfg)
	if err != nil {
		log.LogError(err, "Invalid configuration")
		return err
	}
	container, err := di.New(db, rc, containerCfg)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		return err
	}
	if err := container.Store.Migrate(); err != nil {
		log.LogError(err, "Failed to migrate database")
		return err
	}

	r := router.New(container, cfg)
	r.SetupRoutes()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	metricsServer := &http.Server{
		Addr:    ":" + cfg.Server.MetricsPort,
		Handler: telemetry.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", "port", cfg.Server.Port)
		return listen(apiServer)
	})
	g.Go(func() error {
		log.Info("Metrics server starting", "port", cfg.Server.MetricsPort)
		return listen(metricsServer)
	})
	g.Go(func() error {
		container.Health.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
			telemetry.Shutdown(shutdownCtx),
			container.Close(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		log.LogError(err, "Server stopped with error")
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	return nil
}
