package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError wraps an ESP API error with classification metadata.
type ProviderError struct {
	// Provider is the name of the ESP that returned the error.
	Provider string
	// StatusCode is the HTTP status code from the ESP API.
	StatusCode int
	// Message is the error description from the ESP API.
	Message string
	// Permanent indicates the error will not succeed on retry.
	Permanent bool
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsPermanent returns true if the error is a permanent failure that should
// not be retried.
func IsPermanent(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Permanent
	}
	return false
}

// ClassifyHTTPError creates a ProviderError from an HTTP status code and
// response body, classifying it as permanent or transient. It returns nil
// for 2xx responses.
func ClassifyHTTPError(providerName string, statusCode int, body string) *ProviderError {
	pe := &ProviderError{
		Provider:   providerName,
		StatusCode: statusCode,
		Message:    body,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil

	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		// The request itself was fine; the upstream asked us to come back later.
		pe.Permanent = false

	case statusCode >= 400 && statusCode < 500:
		pe.Permanent = true

	case statusCode >= 500:
		pe.Permanent = false

	default:
		// 1xx and 3xx mean the endpoint is misconfigured; redirects are never followed.
		pe.Permanent = true
	}

	return pe
}
