package logger

import (
	"bytes"
	"io"
	"strings"
)

// RedactedPlaceholder replaces secret values in log output and diagnostics.
const RedactedPlaceholder = "[REDACTED]"

// RedactingWriter masks configured secrets in every write before passing the
// bytes on. zerolog emits one event per Write, so a secret never straddles
// two calls.
type RedactingWriter struct {
	out     io.Writer
	secrets [][]byte
}

// NewRedactingWriter wraps out. Empty secrets are ignored.
func NewRedactingWriter(out io.Writer, secrets ...string) *RedactingWriter {
	w := &RedactingWriter{out: out}
	for _, s := range secrets {
		if s != "" {
			w.secrets = append(w.secrets, []byte(s))
		}
	}
	return w
}

// Write implements io.Writer. The returned count refers to p, not to the
// possibly shorter or longer redacted buffer.
func (w *RedactingWriter) Write(p []byte) (int, error) {
	buf := p
	for _, s := range w.secrets {
		if bytes.Contains(buf, s) {
			buf = bytes.ReplaceAll(buf, s, []byte(RedactedPlaceholder))
		}
	}
	if _, err := w.out.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Redact returns s with every non-empty secret replaced by RedactedPlaceholder.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, RedactedPlaceholder)
		}
	}
	return s
}
