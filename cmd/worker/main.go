// Command worker consumes analysis tasks from the queue and runs the
// scoring pipeline.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairyhunter13/smart-ats/internal/adapter/ai"
	"github.com/fairyhunter13/smart-ats/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/smart-ats/internal/adapter/cache"
	"github.com/fairyhunter13/smart-ats/internal/adapter/observability"
	"github.com/fairyhunter13/smart-ats/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/smart-ats/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/smart-ats/internal/analysis"
	"github.com/fairyhunter13/smart-ats/internal/app"
	"github.com/fairyhunter13/smart-ats/internal/config"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	resultCache, err := cache.New(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		slog.Error("redis connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.WaitForDependency(ctx, "redis", cfg.StartupWaitMax, resultCache.Ping); err != nil {
		slog.Error("redis not ready", slog.Any("error", err))
		os.Exit(1)
	}

	// Judge is optional: without an API key every analysis is scored by the
	// deterministic fallback.
	var judge analysis.Judge
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("gemini client init failed", slog.Any("error", err))
			os.Exit(1)
		}
		judge = ai.NewJudgmentAdapter(client, analysis.FallbackScore, cfg.JudgePromptTokenBudget, cfg.JudgeTimeout)
		slog.Info("judge configured", slog.String("model", client.Model()))
	} else {
		slog.Warn("GEMINI_API_KEY not set; using fallback scoring only")
	}

	pipeline := analysis.NewPipeline(judge)

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.ConsumerMaxConcurrency, repo, resultCache, pipeline)
	if err != nil {
		slog.Error("redpanda consumer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			slog.Error("failed to close consumer", slog.Any("error", err))
		}
	}()

	slog.Info("worker starting",
		slog.String("group", cfg.ConsumerGroup),
		slog.Int("max_concurrency", cfg.ConsumerMaxConcurrency))
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
