package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/togglelabs/mail-worker/internal/logger"
)

const (
	// DefaultEndpoint is the Resend-compatible send endpoint used when none is configured.
	DefaultEndpoint = "https://api.resend.com/emails"

	// maxErrorBody bounds how much of an error response ends up in diagnostics.
	maxErrorBody = 512
)

// HTTP implements the Provider interface for ESPs that accept a JSON
// {from, to, subject, html} document over an authenticated POST.
type HTTP struct {
	apiKey   string
	endpoint string
	client   HTTPClient
}

// NewHTTP creates an HTTP provider from the given configuration.
func NewHTTP(cfg ProviderConfig, client HTTPClient) *HTTP {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTP{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   client,
	}
}

func (h *HTTP) GetName() string { return "http" }

// Send issues exactly one POST for msg. Non-2xx responses come back as a
// classified *ProviderError; transport failures are wrapped as-is.
func (h *HTTP) Send(ctx context.Context, msg *Message) (*DeliveryResult, error) {
	body, err := json.Marshal(h.buildPayload(msg))
	if err != nil {
		return nil, fmt.Errorf("http: marshal request: %w", err)
	}

	resp, err := h.client.Do(ctx, &HTTPRequest{
		Method: "POST",
		URL:    h.endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + h.apiKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("http: send request: %w", err)
	}

	// Redact before truncating; a key cut in half would escape Redact.
	errBody := logger.Redact(strings.TrimSpace(string(resp.Body)), h.apiKey)
	if pe := ClassifyHTTPError(h.GetName(), resp.StatusCode, truncate(errBody, maxErrorBody)); pe != nil {
		return nil, pe
	}

	return &DeliveryResult{
		ProviderMessageID: responseID(resp),
		StatusCode:        resp.StatusCode,
	}, nil
}

// httpPayload is the JSON document posted to the ESP.
type httpPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (h *HTTP) buildPayload(msg *Message) httpPayload {
	to := make([]string, len(msg.To))
	copy(to, msg.To)
	return httpPayload{
		From:    msg.From,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
	}
}

// responseID extracts the ESP message id from a JSON {"id": ...} body,
// falling back to the X-Message-Id header.
func responseID(resp *HTTPResponse) string {
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err == nil && parsed.ID != "" {
		return parsed.ID
	}
	if resp.Headers != nil {
		return resp.Headers["X-Message-Id"]
	}
	return ""
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
