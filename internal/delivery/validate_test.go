package delivery

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateRecipient(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr string
	}{
		{"simple", "a@b.com", ""},
		{"plus tag", "first.last+tag@mail.example.org", ""},
		{"subdomain", "ops@eu.mail.togglelabs.net", ""},
		{"empty", "", "must not be empty"},
		{"whitespace", "  \t", "must not be empty"},
		{"no at", "not-an-email", "invalid recipient"},
		{"display name", "Alice <a@b.com>", "must be a bare email address"},
		{"angle brackets", "<a@b.com>", "must be a bare email address"},
		{"leading space", " a@b.com", "must be a bare email address"},
		{"undotted domain", "a@localhost", `domain "localhost" is not valid`},
		{"list", "a@b.com, c@d.com", "invalid recipient"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateRecipient(tt.addr)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateRecipient(%q) = %v, want nil", tt.addr, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateRecipient(%q) = nil, want error containing %q", tt.addr, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if ve.Field != "recipient" {
				t.Errorf("Field = %q, want recipient", ve.Field)
			}
		})
	}
}

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   bool
	}{
		{"b.com", true},
		{"mail.example.org", true},
		{"", false},
		{"localhost", false},
		{".com", false},
		{"b.", false},
	}

	for _, tt := range tests {
		if got := isValidDomain(tt.domain); got != tt.want {
			t.Errorf("isValidDomain(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	if got := extractDomain("a@b.com"); got != "b.com" {
		t.Errorf("extractDomain() = %q, want b.com", got)
	}
	if got := extractDomain("nope"); got != "" {
		t.Errorf("extractDomain() = %q, want empty", got)
	}
}
