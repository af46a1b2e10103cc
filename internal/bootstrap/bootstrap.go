// Package bootstrap provides startup-time initialization shared by the
// worker entrypoints.
package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/togglelabs/mail-worker/internal/config"
	"github.com/togglelabs/mail-worker/internal/delivery"
	"github.com/togglelabs/mail-worker/internal/logger"
	"github.com/togglelabs/mail-worker/internal/provider"
)

// NewLogger builds the process logger. Configured secrets are masked from
// every line it writes.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return logger.NewFromConfig(logger.LoggingConfig{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		Redact:    cfg.Secrets(),
	})
}

// NewWorker validates cfg and builds the delivery worker with a shared HTTP
// client.
func NewWorker(cfg *config.Config, log zerolog.Logger) (*delivery.Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p, err := provider.NewProvider(cfg.ProviderSettings(), provider.NewHTTPClient())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", p.GetName()).
		Dur("timeout", cfg.Delivery.Timeout()).
		Msg("delivery worker configured")

	return delivery.NewWorker(p, delivery.Config{
		SenderIdentity: cfg.Delivery.SenderIdentity,
		Timeout:        cfg.Delivery.Timeout(),
		Secrets:        cfg.Secrets(),
	}, log), nil
}
