package queue

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestExceedsDeliveries(t *testing.T) {
	tests := []struct {
		deliveries int64
		max        int
		want       bool
	}{
		{1, 5, false},
		{5, 5, false},
		{6, 5, true},
		{100, 0, false},
		{2, 1, true},
	}

	for _, tt := range tests {
		if got := exceedsDeliveries(tt.deliveries, tt.max); got != tt.want {
			t.Errorf("exceedsDeliveries(%d, %d) = %v, want %v", tt.deliveries, tt.max, got, tt.want)
		}
	}
}

func TestIsBusyGroup(t *testing.T) {
	if !isBusyGroup(errors.New("BUSYGROUP Consumer Group name already exists")) {
		t.Error("expected BUSYGROUP to be recognised")
	}
	if isBusyGroup(errors.New("ERR no such key")) {
		t.Error("unexpected BUSYGROUP match")
	}
}

func TestEntryBody(t *testing.T) {
	got := entryBody(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": `{"recipient":"a@b.com"}`}})
	if string(got) != `{"recipient":"a@b.com"}` {
		t.Errorf("entryBody() = %q", got)
	}

	if got := entryBody(redis.XMessage{ID: "2-0", Values: map[string]interface{}{"other": "x"}}); got != nil {
		t.Errorf("entryBody() = %q, want nil", got)
	}
}

func TestDLQStreamKey(t *testing.T) {
	if got := dlqStreamKey("mail-worker:messages"); got != "mail-worker:messages:dlq" {
		t.Errorf("dlqStreamKey() = %q", got)
	}
}
