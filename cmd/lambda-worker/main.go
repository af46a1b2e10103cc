package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/togglelabs/mail-worker/internal/bootstrap"
	"github.com/togglelabs/mail-worker/internal/config"
	"github.com/togglelabs/mail-worker/internal/queue"
	"github.com/togglelabs/mail-worker/internal/sqsevent"
)

func main() {
	configDir := os.Getenv("MAIL_WORKER_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	// Loaded once per execution environment, reused across invocations.
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg)

	worker, err := bootstrap.NewWorker(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build delivery worker")
	}

	settler, err := queue.NewSQSSettler(context.Background(), cfg.Queue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build settler")
	}

	handler := sqsevent.NewHandler(worker, settler, log)
	lambda.Start(handler.Handle)
}
