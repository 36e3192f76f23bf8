package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/api"
	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/services/webhook"
	"catalogsync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := app.NewLogger(cfg)
	defer logger.Sync()

	// Initialize database and sync service
	application, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer application.Close()

	deps := api.Dependencies{
		Items:      application.Items,
		Categories: application.Categories,
		Sync:       application.Service,
		Intake:     webhook.NewIntake(application.Settings, application.Service, logger),
		Settings:   application.Settings,
	}

	// Queue mode needs a publisher. It is created whenever brokers are configured
	// so a settings reload can switch modes; without one saves sync inline.
	if len(cfg.Brokers()) > 0 {
		publisher := worker.NewPublisher(cfg)
		defer publisher.Close()
		deps.Enqueuer = publisher
	}

	// Initialize API server
	server := api.New(cfg, logger, deps)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
