package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: "recurring-worker"})
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Materialized occurrences go through the expense service, so they are
	// published for export like any hand-entered expense.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, occurrences will not be exported", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	processor := services.NewRecurringProcessor(repo, services.NewExpenseService(repo, amqpClient))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring processor configured", "interval", cfg.RecurringInterval, "db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Catch up immediately on startup, then on every tick.
	runOnce := func(now time.Time) {
		count, err := processor.ProcessDueTemplates(ctx, now.UTC())
		if err != nil {
			logger.Error("Recurring processing failed", "error", err)
			return
		}
		logger.Info("Recurring processing complete", "expenses_created", count)
	}
	runOnce(time.Now())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				runOnce(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	logger.Info("Recurring-worker shutdown complete")
}
