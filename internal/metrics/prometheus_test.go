package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{202, "2xx"},
		{400, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{304, "other"},
		{101, "other"},
	}
	for _, tt := range tests {
		if got := StatusClass(tt.code); got != tt.want {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestDeliveriesTotal_Increments(t *testing.T) {
	before := testutil.ToFloat64(DeliveriesTotal.WithLabelValues("Delivered"))
	DeliveriesTotal.WithLabelValues("Delivered").Inc()
	after := testutil.ToFloat64(DeliveriesTotal.WithLabelValues("Delivered"))

	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}
