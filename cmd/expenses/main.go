package main

import (
	"context"
	"os"

	"expenses/internal/cli"
	"expenses/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if err := cli.Serve(context.Background(), logger, cfg); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
}
