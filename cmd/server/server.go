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

	"github.com/kennethwltu/smspanel/internal/config"
	"github.com/kennethwltu/smspanel/internal/db"
	"github.com/kennethwltu/smspanel/internal/gateway"
	"github.com/kennethwltu/smspanel/internal/handlers"
	"github.com/kennethwltu/smspanel/internal/queue"
	"github.com/kennethwltu/smspanel/internal/services"
	"github.com/kennethwltu/smspanel/pkg/logger"
	"github.com/kennethwltu/smspanel/router"

	"go.uber.org/zap"
)

// App bundles the HTTP server with the worker queue so both can be shut
// down in order: HTTP first, then the workers
type App struct {
	server   *http.Server
	queue    *queue.TaskQueue
	database *db.Database
}

// SetupApp wires the whole application from configuration
func SetupApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	messageRepo := db.NewMessageRepository(database.GetDB())
	deadLetterRepo := db.NewDeadLetterRepository(database.GetDB())
	userRepo := db.NewUserRepository(database.GetDB())

	userService := services.NewUserService(userRepo)
	if cfg.Seed.Enable {
		if cfg.Seed.AdminPassword == "" {
			return nil, errors.New("seed admin password is required when seeding is enabled")
		}
		if err := userService.EnsureAdmin(cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to seed admin user: %w", err)
		}
	}

	gatewayClient := gateway.NewHTTPClient(cfg)
	limiter := queue.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	retryPolicy := queue.NewRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)
	taskQueue := queue.New(cfg.Queue.Workers, cfg.Queue.MaxSize)

	smsService := services.NewSMSService(
		messageRepo, deadLetterRepo, gatewayClient, taskQueue,
		retryPolicy, limiter, cfg.DeadLetter.MaxRetries,
	)
	smsService.RegisterHandlers()

	deadLetterService := services.NewDeadLetterService(
		deadLetterRepo, messageRepo, gatewayClient, retryPolicy, limiter,
	)

	r := router.New(cfg, router.Handlers{
		Auth:        handlers.NewAuthHandler(cfg, userService),
		SMS:         handlers.NewSMSHandler(smsService),
		DeadLetters: handlers.NewDeadLetterHandler(deadLetterService),
		Queue:       handlers.NewQueueHandler(taskQueue),
		Users:       handlers.NewUserHandler(userService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		server:   srv,
		queue:    taskQueue,
		database: database,
	}, nil
}

// Run starts the workers and the HTTP server, then blocks until an
// interrupt arrives and everything is drained
func (a *App) Run() error {
	a.queue.Start()

	go func() {
		logger.Info("Starting server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.Shutdown()
}

// Shutdown stops accepting HTTP requests, waits for in-flight jobs and
// closes the database
func (a *App) Shutdown() error {
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := a.server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Workers finish their current job; anything still queued is dropped
	a.queue.Stop()

	if err := a.database.Close(); err != nil {
		return fmt.Errorf("database close failed: %w", err)
	}
	return nil
}
