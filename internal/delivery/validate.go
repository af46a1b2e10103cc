package delivery

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError reports input that can never be delivered, regardless of
// how often it is retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateRecipient checks that addr is a bare, syntactically plausible
// email address: RFC 5322 parseable, no display name or angle brackets, and
// a dotted domain.
func ValidateRecipient(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return &ValidationError{Field: "recipient", Reason: "must not be empty"}
	}

	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return &ValidationError{Field: "recipient", Reason: err.Error()}
	}
	if parsed.Name != "" || parsed.Address != addr {
		return &ValidationError{Field: "recipient", Reason: "must be a bare email address"}
	}

	if domain := extractDomain(parsed.Address); !isValidDomain(domain) {
		return &ValidationError{Field: "recipient", Reason: fmt.Sprintf("domain %q is not valid", domain)}
	}
	return nil
}

func extractDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

// isValidDomain requires a non-empty domain with at least one inner dot.
func isValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return strings.Contains(domain, ".")
}
