package redis

import (
	"context"
	"testing"
	"time"
)

func TestReportCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewReportCache(client)
	ctx := context.Background()
	payload := []byte(`{"id":"rep-1","status":"clean"}`)

	if err := cache.Set(ctx, "card-1", "abc", payload, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok, err := cache.Get(ctx, "card-1", "abc")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %s, got %s", payload, got)
	}
}

func TestReportCacheMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewReportCache(client)

	// Same fingerprint on another instrument is a different entry.
	if err := cache.Set(context.Background(), "card-1", "abc", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	_, ok, err := cache.Get(context.Background(), "card-2", "abc")
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestReportCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewReportCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "card-1", "abc", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, ok, _ := cache.Get(ctx, "card-1", "abc"); ok {
		t.Fatalf("expected entry to expire")
	}
}
