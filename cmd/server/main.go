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

	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/app"
	"github.com/ikkim/campus-backend/internal/app/service"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/db"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/metrics"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/internal/router"
	"github.com/ikkim/campus-backend/internal/scheduler"
	"github.com/ikkim/campus-backend/internal/storage"
	ws "github.com/ikkim/campus-backend/internal/websocket"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/ikkim/campus-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

// chatBroker is a service.Broadcaster that also owns a subscription loop.
type chatBroker interface {
	service.Broadcaster
	Run(ctx context.Context)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting Campus API server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed reference data", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redis.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	var (
		store  cache.Store
		broker chatBroker
	)
	if rc := redis.GetClient(); rc != nil {
		store = cache.NewRedisStore(rc, cfg.Redis.Prefix)
		broker = ws.NewRedisBroker(rc, hub)
	} else {
		store = cache.NewMemoryStore()
		broker = ws.NewLocalBroker(hub)
	}
	go broker.Run(ctx)

	queueClient := queue.NewClient(&cfg.Queue, &cfg.Redis)
	defer queueClient.Close()

	publisher := events.NewPublisher(&cfg.Kafka)
	defer publisher.Close()

	var objects storage.ObjectStore
	if cfg.S3.Configured() {
		objects = storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	} else {
		logger.Warn("S3 bucket not configured, presigned uploads are disabled")
	}

	services, err := app.NewServices(cfg, app.Deps{
		DB:          db.GetDB(),
		Store:       store,
		Queue:       queueClient,
		Publisher:   publisher,
		Objects:     objects,
		Broadcaster: broker,
	})
	if err != nil {
		logger.Fatal("Failed to build services", err)
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
	}

	maintenance := scheduler.NewMaintenanceScheduler(queueClient, services.Chat, services.Reports, cfg.Chat.CleanupSchedule)
	if err := maintenance.Start(); err != nil {
		logger.Fatal("Failed to start maintenance scheduler", err)
	}
	defer maintenance.Stop()

	r := router.NewRouter(
		app.NewControllers(cfg, services, hub, objects),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, services.Blacklist),
		services.Blocklist,
		registry,
		cfg,
	)
	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	cancel()
	logger.Info("Server stopped successfully")
}
