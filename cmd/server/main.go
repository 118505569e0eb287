// Command server starts the Smart ATS HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/smart-ats/internal/adapter/cache"
	httpserver "github.com/fairyhunter13/smart-ats/internal/adapter/httpserver"
	"github.com/fairyhunter13/smart-ats/internal/adapter/observability"
	"github.com/fairyhunter13/smart-ats/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/smart-ats/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/smart-ats/internal/adapter/textextractor/local"
	"github.com/fairyhunter13/smart-ats/internal/app"
	"github.com/fairyhunter13/smart-ats/internal/config"
	"github.com/fairyhunter13/smart-ats/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := app.WaitForDependency(ctx, "postgres", cfg.StartupWaitMax, pool.Ping); err != nil {
		slog.Error("db not ready", slog.Any("error", err))
		os.Exit(1)
	}

	repo := postgres.NewAnalysisRepo(pool)

	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.DataRetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	resultCache, err := cache.New(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		slog.Error("redis connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.WaitForDependency(ctx, "redis", cfg.StartupWaitMax, resultCache.Ping); err != nil {
		slog.Error("redis not ready", slog.Any("error", err))
		os.Exit(1)
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("failed to close queue client", slog.Any("error", err))
		}
	}()

	analyzeSvc := usecase.NewAnalyzeService(repo, resultCache, producer, local.New())
	resultSvc := usecase.NewResultService(repo)

	dbCheck, redisCheck, brokerCheck := app.BuildReadinessChecks(pool, app.PingerFunc(resultCache.Ping), app.PingerFunc(producer.Ping))

	srv := httpserver.NewServer(cfg, analyzeSvc, resultSvc, dbCheck, redisCheck, brokerCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
