package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opinian/opinian/internal/activity"
	activityhttp "github.com/opinian/opinian/internal/activity/http"
	"github.com/opinian/opinian/internal/app"
	"github.com/opinian/opinian/internal/authz"
	"github.com/opinian/opinian/internal/identity"
	identityhttp "github.com/opinian/opinian/internal/identity/http"
	"github.com/opinian/opinian/internal/observability"
	"github.com/opinian/opinian/internal/platform/cache"
	"github.com/opinian/opinian/internal/platform/db"
	"github.com/opinian/opinian/internal/site"
	sitehttp "github.com/opinian/opinian/internal/site/http"
	"github.com/opinian/opinian/internal/themes"
	themehttp "github.com/opinian/opinian/internal/themes/http"
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
		logger.Warn("redis unavailable, render cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	metrics := observability.NewMetrics()

	recorder := activity.NewRecorder(pool)
	engine := authz.NewEngine(recorder, logger)

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo)

	themeRepo := themes.NewRepository(pool)
	themeService := themes.NewService(themeRepo, recorder, logger)
	themeResolver := themes.NewResolver(themeRepo, recorder, logger)

	renderer := site.NewRenderer(themeResolver, redisClient, cfg.RenderCacheTTL, logger)

	timelineService := activity.NewService(activity.NewPGRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Actors:          identityRepo,
		Metrics:         metrics,
		IdentityHandler: identityhttp.NewHandler(logger, identityService, engine),
		ThemeHandler:    themehttp.NewHandler(logger, themeService, themeResolver, engine),
		ActivityHandler: activityhttp.NewHandler(logger, timelineService, engine),
		SiteHandler:     sitehttp.NewHandler(logger, renderer),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
