package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Argus/internal/api"
	"github.com/XavierBriggs/Argus/internal/delta"
	"github.com/XavierBriggs/Argus/internal/scheduler"
	"github.com/XavierBriggs/Argus/internal/writer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when enabled, the polling scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("registered sports", zap.Int("count", a.registry.Count()))
	logger.Info("source order",
		zap.Any("sources", a.orchestrator.Sources()),
		zap.Bool("fallback_enabled", a.orchestrator.FallbackEnabled()),
	)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var redisClient *redis.Client
		if cfg.Redis.Enabled {
			redisClient, err = openRedis(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer redisClient.Close()
			logger.Info("connected to redis")
		}

		var db *sql.DB
		if cfg.Postgres.Enabled {
			db, err = openPostgres(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("connected to postgres")
		}

		var engine *delta.Engine
		if redisClient != nil {
			engine = delta.NewEngine(redisClient, cfg.Redis.CacheTTL)
		}
		var w *writer.Writer
		if redisClient != nil || db != nil {
			w = writer.NewWriter(db, redisClient, logger.Named("writer"))
		}

		sched = scheduler.NewScheduler(scheduler.Config{
			Interval:    cfg.Scheduler.Interval,
			Concurrency: cfg.Scheduler.Concurrency,
			WindowHours: cfg.Scheduler.WindowHours,
			JitterSecs:  5,
		}, a.registry.GetAll(), a.discoverers, a.orchestrator, engine, w, logger)

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	handler := api.NewHandler(a.orchestrator, a.tracker, a.registry, a.rateLimits, 30*time.Second, logger.Named("api"))
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", cfg.Server.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if sched != nil {
			sched.Stop()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}

	logger.Info("argus stopped")
	return nil
}
