package queue

import (
	"encoding/json"
	"testing"
)

func TestOriginalBody(t *testing.T) {
	wire := `{"recipient":"a@b.com","subject":"hi","body_html":"<p>hi</p>"}`

	envelope, err := json.Marshal(DLQMessage{
		MessageID: "m1",
		Body:      wire,
		Reason:    ReasonPermanentFailure,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"envelope is unwrapped", string(envelope), wire},
		{"raw wire body passes through", wire, wire},
		{"non-json passes through", "garbage", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := originalBody(tt.raw); got != tt.want {
				t.Errorf("originalBody() = %q, want %q", got, tt.want)
			}
		})
	}
}
