package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/log"
	"expenses/internal/worker"
)

const summaryInterval = time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the event worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting expenses-worker", "queue", cfg.AMQPQueue)
	audit := worker.NewAuditWorker()
	if err := audit.Run(ctx, client.ConsumeExpenseEvents, summaryInterval); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
