package provider

import "fmt"

// NewProvider creates a provider instance from the given config and HTTP client.
func NewProvider(cfg ProviderConfig, client HTTPClient) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}

	switch cfg.Type {
	case "http":
		return NewHTTP(cfg, client), nil
	case "stdout":
		return NewStdout(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
