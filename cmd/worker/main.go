package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/worker"
	"catalogsync/internal/worker/processors"
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

	if len(cfg.Brokers()) == 0 {
		logger.Fatal("KAFKA_BROKERS is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer application.Close()

	// Initialize worker
	processor := processors.NewEventProcessor(application.Items, application.Service, logger)
	w := worker.New(cfg, logger, processor)

	// Start worker
	logger.Info("Starting worker on topic %s (group %s)...", cfg.KafkaTopic, cfg.KafkaGroupID)
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker stopped with error: %v", err)
	}

	logger.Info("Shutting down worker...")
	w.Stop()
}
