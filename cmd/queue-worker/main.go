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

	"github.com/togglelabs/mail-worker/internal/api"
	"github.com/togglelabs/mail-worker/internal/bootstrap"
	"github.com/togglelabs/mail-worker/internal/config"
	"github.com/togglelabs/mail-worker/internal/queue"
)

func main() {
	configDir := os.Getenv("MAIL_WORKER_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg)
	log.Info().Str("queue_type", cfg.Queue.Type).Msg("starting queue worker")

	if err := cfg.Queue.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid queue config")
	}

	worker, err := bootstrap.NewWorker(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build delivery worker")
	}

	ctx := context.Background()
	_, dequeuer, dlq, err := queue.NewQueue(ctx, cfg.Queue, worker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}

	router := api.NewRouter(log, dequeuer, dlq, cfg.HTTP.AdminToken)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server error")
		}
	}()

	if err := dequeuer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start dequeuer")
	}

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down queue worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := dequeuer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dequeuer stop")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("queue worker stopped")
}
