package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/academics"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/app"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/blog"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/facilities"
	jobmetrics "github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/jobs"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/cache"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/db"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/site"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	blogService := blog.NewService(blog.NewPGRepository(pool), logger)
	academicsService := academics.NewService(academics.NewPGRepository(pool))
	facilitiesService := facilities.NewService(facilities.NewPGRepository(pool))
	sitemapBuilder := site.NewSitemapBuilder(cfg.BaseURL, blogService, academicsService, facilitiesService, redisClient)

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBlogPublishDue, Handler: jobs.NewBlogPublishDueHandler(blogService, metrics, logger)},
			{Type: jobs.TaskSitemapRefresh, Handler: jobs.NewSitemapRefreshHandler(sitemapBuilder, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: jobs.NewBlogPublishDueTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewSitemapRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
