// Package main is the prediction-validator entry point: it wires the
// adapters, seeds the cost tracker, starts the worker pool and the ops
// HTTP server, and drains everything on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/prediction-validator/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/prediction-validator/internal/adapter/observability"
	"github.com/fairyhunter13/prediction-validator/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/prediction-validator/internal/adapter/search/serpapi"
	"github.com/fairyhunter13/prediction-validator/internal/app"
	"github.com/fairyhunter13/prediction-validator/internal/config"
	"github.com/fairyhunter13/prediction-validator/internal/service/costs"
	"github.com/fairyhunter13/prediction-validator/internal/usecase"
	"github.com/fairyhunter13/prediction-validator/internal/worker"
)

func main() {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
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

	slog.Info("starting prediction validator",
		slog.String("env", cfg.AppEnv),
		slog.Int("workers", cfg.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL, cfg.Workers)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	keywords, err := config.LoadInvalidReasoningKeywords(cfg.InvalidReasoningKeywordsPath)
	if err != nil {
		slog.Error("keyword list load failed", slog.Any("error", err))
		os.Exit(1)
	}

	costLog := costs.NewLog(cfg.CostLogPath)
	tracker := costs.NewTracker(costLog)
	if err := tracker.LoadHistory(); err != nil {
		slog.Warn("cost history reload failed, starting with empty historical counters", slog.Any("error", err))
	}

	chat := openrouter.New(cfg)
	search := serpapi.New(cfg)
	posts := postgres.NewPostRepo(pool)
	results := postgres.NewResultRepo(pool)
	leaser := postgres.NewLeaser(postgres.DefaultLeaseThresholds())

	params := usecase.ParamsFromConfig(cfg)
	pipeline := usecase.NewValidator(chat, search, posts, keywords, params)

	sup := worker.NewSupervisor(cfg.Workers, pool, leaser, pipeline, results, tracker,
		cfg.WorkerIdleSleep, cfg.WorkerErrorSleep)

	go func() {
		router := app.NewRouter(pool, tracker)
		if err := app.Serve(ctx, cfg.Port, router, cfg.ServerShutdownTimeout); err != nil {
			slog.Error("ops server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, draining workers")
		observability.Quiesce()
	}()

	sup.Run(ctx)
	slog.Info("shutdown complete")
}
