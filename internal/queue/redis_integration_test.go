//go:build integration

package queue

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/togglelabs/mail-worker/internal/delivery"
)

var redisAddr string

// TestMain starts a shared Redis container for the stream integration tests.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}
	redisAddr = fmt.Sprintf("%s:%s", host, port.Port())

	code := m.Run()

	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestRedis(t *testing.T) (*redis.Client, Config) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = client.Close() })

	cfg := DefaultConfig()
	cfg.Type = "redis"
	cfg.RedisAddr = redisAddr
	cfg.Stream = "test:" + t.Name()
	cfg.Group = "workers"
	cfg.WorkerCount = 1
	cfg.BlockTimeout = 100 * time.Millisecond
	cfg.ShutdownTimeout = 5 * time.Second
	cfg.RedisMinIdle = 0
	cfg.MaxDeliveries = 2
	return client, cfg
}

func pendingCount(t *testing.T, client *redis.Client, cfg Config) int64 {
	t.Helper()
	p, err := client.XPending(context.Background(), cfg.Stream, cfg.Group).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	return p.Count
}

func runRedisOnce(t *testing.T, client *redis.Client, cfg Config, proc *fakeProcessor, settler *Settler) *RedisDequeuer {
	t.Helper()
	ctx := context.Background()

	if _, err := NewRedisEnqueuer(client, cfg.Stream).Enqueue(ctx, []byte(`{"recipient":"a@b.com"}`)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	d := NewRedisDequeuer(client, proc, settler, cfg, testLogger())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-proc.called:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for processing")
	}
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	return d
}

func TestRedisDequeuer_DeliveredIsAcked(t *testing.T) {
	client, cfg := newTestRedis(t)
	proc := newFakeProcessor(delivery.Result{Outcome: delivery.Delivered, Detail: "x"})

	runRedisOnce(t, client, cfg, proc, NewSettler(nil, testLogger()))

	if n := pendingCount(t, client, cfg); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if got := proc.bodies[0]; got != `{"recipient":"a@b.com"}` {
		t.Errorf("processor body = %q", got)
	}
}

func TestRedisDequeuer_PermanentMovesToDLQAndRedrives(t *testing.T) {
	client, cfg := newTestRedis(t)
	ctx := context.Background()
	proc := newFakeProcessor(delivery.Result{Outcome: delivery.PermanentFailure, Detail: "bad"})

	enqueuer := NewRedisEnqueuer(client, cfg.Stream)
	dlq := NewRedisDLQ(client, cfg.Stream, enqueuer, testLogger())
	runRedisOnce(t, client, cfg, proc, NewSettler(dlq, testLogger()))

	if n := pendingCount(t, client, cfg); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if n := client.XLen(ctx, dlqStreamKey(cfg.Stream)).Val(); n != 1 {
		t.Fatalf("dlq length = %d, want 1", n)
	}

	before := client.XLen(ctx, cfg.Stream).Val()
	moved, err := dlq.Redrive(ctx, 10)
	if err != nil {
		t.Fatalf("redrive: %v", err)
	}
	if moved != 1 {
		t.Errorf("redrive moved %d, want 1", moved)
	}
	if n := client.XLen(ctx, dlqStreamKey(cfg.Stream)).Val(); n != 0 {
		t.Errorf("dlq length after redrive = %d, want 0", n)
	}
	if after := client.XLen(ctx, cfg.Stream).Val(); after != before+1 {
		t.Errorf("stream length = %d, want %d", after, before+1)
	}
}

func TestRedisDequeuer_RetryableStaysPendingThenExhausts(t *testing.T) {
	client, cfg := newTestRedis(t)
	ctx := context.Background()
	proc := newFakeProcessor(delivery.Result{Outcome: delivery.RetryableFailure, Detail: "503"})

	enqueuer := NewRedisEnqueuer(client, cfg.Stream)
	dlq := NewRedisDLQ(client, cfg.Stream, enqueuer, testLogger())
	d := runRedisOnce(t, client, cfg, proc, NewSettler(dlq, testLogger()))

	if n := pendingCount(t, client, cfg); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}

	// Second delivery via the reclaimer is still within MaxDeliveries.
	if err := d.reclaim(ctx, "reclaimer"); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if got := len(proc.getSeen()); got != 2 {
		t.Fatalf("processed %d times, want 2", got)
	}

	// Third delivery exceeds it and dead-letters without processing.
	if err := d.reclaim(ctx, "reclaimer"); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if got := len(proc.getSeen()); got != 2 {
		t.Errorf("processed %d times, want 2", got)
	}
	if n := pendingCount(t, client, cfg); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if n := client.XLen(ctx, dlqStreamKey(cfg.Stream)).Val(); n != 1 {
		t.Errorf("dlq length = %d, want 1", n)
	}
}

func TestRedisDLQ_RedriveDiscardsMalformedEntries(t *testing.T) {
	client, cfg := newTestRedis(t)
	ctx := context.Background()

	enqueuer := NewRedisEnqueuer(client, cfg.Stream)
	dlq := NewRedisDLQ(client, cfg.Stream, enqueuer, testLogger())
	key := dlqStreamKey(cfg.Stream)

	for i := 0; i < 2; i++ {
		if err := client.XAdd(ctx, &redis.XAddArgs{Stream: key, Values: map[string]interface{}{"junk": "x"}}).Err(); err != nil {
			t.Fatalf("xadd malformed: %v", err)
		}
	}
	if err := dlq.MoveToDLQ(ctx, &DLQMessage{MessageID: "m1", Body: `{"recipient":"a@b.com"}`, Reason: ReasonPermanentFailure}); err != nil {
		t.Fatalf("move to dlq: %v", err)
	}

	moved, err := dlq.Redrive(ctx, 2)
	if err != nil {
		t.Fatalf("first redrive: %v", err)
	}
	if moved != 0 {
		t.Errorf("first redrive moved %d, want 0", moved)
	}
	if n := client.XLen(ctx, key).Val(); n != 1 {
		t.Fatalf("dlq length = %d, want 1 after discarding malformed entries", n)
	}

	moved, err = dlq.Redrive(ctx, 2)
	if err != nil {
		t.Fatalf("second redrive: %v", err)
	}
	if moved != 1 {
		t.Errorf("second redrive moved %d, want 1", moved)
	}
	if n := client.XLen(ctx, key).Val(); n != 0 {
		t.Errorf("dlq length = %d, want 0", n)
	}
}
