// Package cli provides the process wiring shared by the expenses commands:
// logging, configuration, the optional event publisher and the serve loop.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/ports"
	"expenses/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = time.Minute
)

// SetupLogger builds the process logger at the given level and makes it
// the slog default. An unknown level falls back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		cfg.Format = "json"
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitPublisher connects to the broker when AMQP is configured. A broker
// that cannot be reached leaves events disabled; the app keeps working.
func InitPublisher(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP not configured, expense events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, expense events disabled",
			log.FieldError, err,
			"exchange", cfg.AMQPExchange)
		return nil
	}
	logger.Info("AMQP publisher connected",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// Serve runs the HTTP server until ctx is cancelled or a SIGINT/SIGTERM
// arrives, then drains it and releases the sessions and the publisher.
func Serve(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := InitPublisher(logger, cfg)
	var publisher ports.EventPublisher
	if client != nil {
		publisher = client
	}

	sessions := session.NewRegistry(session.Options{
		MaxSessions:  cfg.SessionMax,
		MaxPerClient: cfg.SessionMaxPerClient,
		TTL:          cfg.SessionTTL,
		Publisher:    publisher,
	})
	caches := cache.NewManager()
	caches.Register(sessions)
	caches.StartCleanup(cleanupInterval)

	srv, err := apphttp.NewServer(":"+cfg.Port, sessions, apphttp.Options{
		LoadDelay:          cfg.LoadDelay,
		CurrencySymbol:     cfg.CurrencySymbol,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		EventsEnabled:      client != nil,
		Logger:             logger,

		SessionOpensPerMinute: cfg.SessionOpensPerMinute,
	})
	if err != nil {
		caches.Stop()
		closePublisher(logger, client)
		return fmt.Errorf("create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server",
			"port", cfg.Port,
			"load_delay", cfg.LoadDelay.String(),
			"events", client != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		closePublisher(logger, client)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func closePublisher(logger *log.Logger, client *amqp.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("AMQP close error", log.FieldError, err)
	}
}
