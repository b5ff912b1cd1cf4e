package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/opinian/opinian/internal/app"
	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/platform/cache"
	"github.com/opinian/opinian/internal/platform/db"
	"github.com/opinian/opinian/internal/site"
	"github.com/opinian/opinian/internal/themes"
	"github.com/opinian/opinian/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		_ = redisClient.Close()
	}()

	identityRepo := identity.NewRepository(pool)
	themeRepo := themes.NewRepository(pool)
	themeResolver := themes.NewResolver(themeRepo, nil, logger)
	renderer := site.NewRenderer(themeResolver, redisClient, cfg.RenderCacheTTL, logger)

	warmAll, err := jobs.NewRenderWarmupTask(jobs.RenderWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRenderWarmup, Handler: jobs.NewRenderWarmupHandler(renderer, identityRepo, jobs.NewMetrics(nil), logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 15m", Task: warmAll},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		worker.Shutdown()
	}()

	logger.Info("starting worker")
	if err := worker.Run(); err != nil {
		logger.Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}
