package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/travel-reservations/internal/http/middleware"
	"github.com/diagnosis/travel-reservations/internal/http/router"
	"github.com/diagnosis/travel-reservations/pkg/config"
	"github.com/diagnosis/travel-reservations/pkg/events"
	"github.com/diagnosis/travel-reservations/pkg/logger"
	mw "github.com/diagnosis/travel-reservations/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	checkers := map[string]mw.Checker{}

	// Optional event bus
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled() {
		nats, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.ServiceName)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		publisher = nats
		checkers["nats"] = nats
	}
	defer publisher.Close()

	// Optional rate limit store
	var counter middleware.Counter
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		if cfg.Redis.DB != 0 {
			opts.DB = cfg.Redis.DB
		}
		client := redis.NewClient(opts)
		defer client.Close()

		rc := middleware.NewRedisCounter(client)
		counter = rc
		checkers["redis"] = rc
	}

	handler := router.New(router.Options{
		ServiceName: cfg.ServiceName,
		CORS:        cfg.CORS,
		RateLimit:   cfg.RateLimit,
		Counter:     counter,
		Notifier:    events.NewNotifier(publisher, cfg.NATS.SubjectPrefix),
		Checkers:    checkers,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down reservations service...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Reservations service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting reservations service",
		"port", cfg.Server.Port,
		"nats", cfg.NATS.Enabled(),
		"rate_limit", counter != nil && cfg.RateLimit.Requests > 0,
	)
	start := time.Now()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Reservations service error", "error", err)
		os.Exit(1)
	}
	<-idle
	logger.Info("Reservations service stopped", "uptime", time.Since(start).String())
}
