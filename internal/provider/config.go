package provider

import (
	"errors"
	"fmt"
	"net/url"
)

// ProviderConfig holds configuration for an ESP provider.
type ProviderConfig struct {
	// Type identifies the provider: "http" or "stdout".
	Type string

	// APIKey is the bearer credential for the provider.
	APIKey string

	// Endpoint is the URL messages are POSTed to.
	Endpoint string
}

// Validate checks that required fields are set based on provider type.
func (c *ProviderConfig) Validate() error {
	if c.Type == "" {
		return errors.New("provider type is required")
	}

	switch c.Type {
	case "http":
		if c.APIKey == "" {
			return errors.New("http: api_key is required")
		}
		if c.Endpoint == "" {
			return errors.New("http: endpoint_url is required")
		}
		if err := validateEndpoint(c.Endpoint); err != nil {
			return err
		}
	case "stdout":
		// No configuration required.
	default:
		return errors.New("unknown provider type: " + c.Type)
	}

	return nil
}

// validateEndpoint requires an absolute http(s) URL with a host.
func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("http: endpoint_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("http: endpoint_url %q must use http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("http: endpoint_url %q has no host", endpoint)
	}
	return nil
}
