package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int64), expires: make(map[string]time.Duration)}
}

func (f *fakeCounter) Ping(ctx context.Context) error { return nil }
func (f *fakeCounter) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	return nil
}
func (f *fakeCounter) Get(ctx context.Context, key string) (string, error) { return "", Nil }

func (f *fakeCounter) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.expires[key] = expiration
	return nil
}

func (f *fakeCounter) Del(ctx context.Context, keys ...string) error { return nil }
func (f *fakeCounter) Close() error                                  { return nil }

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	client := newFakeCounter()
	rl := NewRateLimiter(client)
	key := UploadKey("u1")

	for i := 0; i < 10; i++ {
		ok, err := rl.Allow(context.Background(), key, 10, time.Minute)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("Allow #%d = false within limit", i+1)
		}
	}
	ok, err := rl.Allow(context.Background(), key, 10, time.Minute)
	if err != nil {
		t.Fatalf("Allow #11: %v", err)
	}
	if ok {
		t.Error("11th upload allowed past the limit")
	}

	if client.expires[key] != time.Minute {
		t.Errorf("window TTL = %v", client.expires[key])
	}
}

func TestRateLimiterKeysArePerUser(t *testing.T) {
	rl := NewRateLimiter(newFakeCounter())

	for i := 0; i < 3; i++ {
		_, _ = rl.Allow(context.Background(), UploadKey("u1"), 3, time.Minute)
	}
	if ok, _ := rl.Allow(context.Background(), UploadKey("u1"), 3, time.Minute); ok {
		t.Error("u1 not limited")
	}
	if ok, _ := rl.Allow(context.Background(), UploadKey("u2"), 3, time.Minute); !ok {
		t.Error("u2 limited by u1's uploads")
	}
}

func TestRateLimiterPropagatesErrors(t *testing.T) {
	client := newFakeCounter()
	client.incrErr = errors.New("connection refused")
	rl := NewRateLimiter(client)

	if _, err := rl.Allow(context.Background(), UploadKey("u1"), 10, time.Minute); err == nil {
		t.Error("Allow swallowed the client error")
	}
}
