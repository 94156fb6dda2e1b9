package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisLeaseIsExclusive(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	key := "socialflow:test:lease:" + time.Now().Format(time.RFC3339Nano)

	a := NewRedisLease(c, key)
	b := NewRedisLease(c, key)

	release, ok, err := a.Acquire(ctx, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed got %v, %v", ok, err)
	}
	if _, ok, err := b.Acquire(ctx, time.Minute); err != nil || ok {
		t.Fatalf("expected second acquire to be refused got %v, %v", ok, err)
	}

	release()
	release2, ok, err := b.Acquire(ctx, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed got %v, %v", ok, err)
	}
	release2()
}

func TestRedisLeaseRejectsZeroTTL(t *testing.T) {
	l := NewRedisLease(nil, "k")
	if _, _, err := l.Acquire(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
