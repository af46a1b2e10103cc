package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/togglelabs/mail-worker/internal/provider"
	"github.com/togglelabs/mail-worker/internal/queue"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MAIL_WORKER"

// Config holds all application configuration.
type Config struct {
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Provider ProviderConfig `mapstructure:"provider"`
	Queue    queue.Config   `mapstructure:"queue"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

// DeliveryConfig holds the per-process settings of the delivery worker.
type DeliveryConfig struct {
	SenderIdentity string `mapstructure:"sender_identity"`
	APIKey         string `mapstructure:"api_key"`
	EndpointURL    string `mapstructure:"endpoint_url"`
	TimeoutMs      int    `mapstructure:"timeout_ms"`
}

// Timeout returns the outbound call bound as a duration.
func (d DeliveryConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutMs) * time.Millisecond
}

// ProviderConfig selects the ESP implementation.
type ProviderConfig struct {
	Type string `mapstructure:"type"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// HTTPConfig holds the ops HTTP server configuration.
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	AdminToken   string        `mapstructure:"admin_token"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ProviderSettings assembles the provider package configuration.
func (c *Config) ProviderSettings() provider.ProviderConfig {
	return provider.ProviderConfig{
		Type:     c.Provider.Type,
		APIKey:   c.Delivery.APIKey,
		Endpoint: c.Delivery.EndpointURL,
	}
}

// Secrets returns the configured values that must never be logged.
func (c *Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.Delivery.APIKey, c.HTTP.AdminToken, c.Queue.RedisPassword} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the settings every entrypoint needs. Queue settings are
// validated by the entrypoints that consume from a queue.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Delivery.SenderIdentity) == "" {
		return errors.New("delivery: sender_identity is required")
	}
	if c.Delivery.TimeoutMs <= 0 {
		return fmt.Errorf("delivery: timeout_ms must be positive, got %d", c.Delivery.TimeoutMs)
	}
	settings := c.ProviderSettings()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	q := queue.DefaultConfig()

	v.SetDefault("delivery.sender_identity", "")
	v.SetDefault("delivery.api_key", "")
	v.SetDefault("delivery.endpoint_url", provider.DefaultEndpoint)
	v.SetDefault("delivery.timeout_ms", 10000)

	v.SetDefault("provider.type", "http")

	v.SetDefault("queue.type", q.Type)
	v.SetDefault("queue.worker_count", q.WorkerCount)
	v.SetDefault("queue.process_timeout", q.ProcessTimeout)
	v.SetDefault("queue.shutdown_timeout", q.ShutdownTimeout)
	v.SetDefault("queue.redis_addr", q.RedisAddr)
	v.SetDefault("queue.redis_password", "")
	v.SetDefault("queue.redis_db", q.RedisDB)
	v.SetDefault("queue.stream", q.Stream)
	v.SetDefault("queue.group", q.Group)
	v.SetDefault("queue.block_timeout", q.BlockTimeout)
	v.SetDefault("queue.redis_min_idle", q.RedisMinIdle)
	v.SetDefault("queue.reclaim_interval", q.ReclaimInterval)
	v.SetDefault("queue.max_deliveries", q.MaxDeliveries)
	v.SetDefault("queue.sqs_queue_url", "")
	v.SetDefault("queue.sqs_dlq_url", "")
	v.SetDefault("queue.sqs_region", q.SQSRegion)
	v.SetDefault("queue.sqs_endpoint", "")
	v.SetDefault("queue.sqs_wait_time", q.SQSWaitTime)
	v.SetDefault("queue.sqs_visibility_timeout", q.SQSVisTimeout)
	v.SetDefault("queue.retry_visibility", q.RetryVisibility)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_files", 5)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.admin_token", "")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
}

// Load reads configuration from the given config directory path.
// It looks for an optional file named "config.yaml" in that directory.
// Environment variables with prefix MAIL_WORKER_ override file values.
// For example, MAIL_WORKER_DELIVERY_API_KEY overrides delivery.api_key.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
