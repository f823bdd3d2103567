package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/app"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/metrics"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/internal/storage"
	ws "github.com/ikkim/campus-backend/internal/websocket"
	"github.com/ikkim/campus-backend/internal/worker"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/ikkim/campus-backend/pkg/mailer"
	"github.com/ikkim/campus-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:  logLevel,
		Format: "json",
	})

	logger.Info("Starting Campus worker", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"concurrency": cfg.Queue.Concurrency,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// The worker cannot run without Redis: it is the asynq backend.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to connect to Redis", err)
	}
	defer redis.Close()
	rc := redis.GetClient()
	if rc == nil {
		logger.Fatal("Redis is disabled; the worker has nothing to consume", errors.New("redis disabled"))
	}

	queueClient := queue.NewClient(&cfg.Queue, &cfg.Redis)
	defer queueClient.Close()

	publisher := events.NewPublisher(&cfg.Kafka)
	defer publisher.Close()

	var objects storage.ObjectStore
	if cfg.S3.Configured() {
		objects = storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	}

	// Frames published here reach API processes through Redis; the local hub has no sessions.
	services, err := app.NewServices(cfg, app.Deps{
		DB:          db.GetDB(),
		Store:       cache.NewRedisStore(rc, cfg.Redis.Prefix),
		Queue:       queueClient,
		Publisher:   publisher,
		Objects:     objects,
		Broadcaster: ws.NewRedisBroker(rc, ws.NewHub()),
	})
	if err != nil {
		logger.Fatal("Failed to build services", err)
	}

	var jobMetrics *metrics.JobMetrics
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		registry := metrics.NewRegistry()
		jobMetrics = metrics.NewJobMetrics(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		metricsSrv = &http.Server{Addr: cfg.Metrics.WorkerAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Worker metrics server stopped", err)
			}
		}()
	}

	consumer := &worker.Consumer{
		Mailer:      mailer.NewSMTPMailer(cfg.Email),
		Links:       services.Links,
		Reports:     services.Reports,
		Chat:        services.Chat,
		Objects:     objects,
		Invalidator: services.Invalidator,
		Metrics:     jobMetrics,
	}

	svc, err := worker.NewService(&cfg.Queue, &cfg.Redis, consumer, queueClient)
	if err != nil {
		logger.Fatal("Failed to create worker", err)
	}

	go func() {
		if err := svc.Start(); err != nil {
			logger.Fatal("Worker stopped unexpectedly", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	svc.Stop()
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}
	logger.Info("Worker stopped")
}
