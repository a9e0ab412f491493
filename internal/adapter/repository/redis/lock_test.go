package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/reconledger/internal/domain"
)

func TestRunLockerExcludesSecondRun(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewRunLocker(client)
	ctx := context.Background()

	token, err := locker.Acquire(ctx, "owner-1:card-1", time.Minute)
	if err != nil || token == "" {
		t.Fatalf("expected lock, got token=%q err=%v", token, err)
	}

	if _, err := locker.Acquire(ctx, "owner-1:card-1", time.Minute); !errors.Is(err, domain.ErrConcurrentRunConflict) {
		t.Fatalf("expected ErrConcurrentRunConflict, got %v", err)
	}

	// Other scopes are independent.
	if _, err := locker.Acquire(ctx, "owner-1:card-2", time.Minute); err != nil {
		t.Fatalf("expected independent scope lock, got %v", err)
	}

	if err := locker.Release(ctx, "owner-1:card-1", token); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := locker.Acquire(ctx, "owner-1:card-1", time.Minute); err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
}

func TestRunLockerReleaseChecksToken(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewRunLocker(client)
	ctx := context.Background()

	if _, err := locker.Acquire(ctx, "scope", time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := locker.Release(ctx, "scope", "someone-else"); !errors.Is(err, ErrLockNotHeld) {
		t.Fatalf("expected ErrLockNotHeld, got %v", err)
	}
	if !mr.Exists(locker.prefix + "scope") {
		t.Fatalf("foreign release must not delete the lock")
	}
}

func TestRunLockerExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewRunLocker(client)
	ctx := context.Background()

	token, err := locker.Acquire(ctx, "scope", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := locker.Acquire(ctx, "scope", time.Minute); err != nil {
		t.Fatalf("expected expired lock to be free, got %v", err)
	}
	if err := locker.Release(ctx, "scope", token); !errors.Is(err, ErrLockNotHeld) {
		t.Fatalf("expected stale token release to fail, got %v", err)
	}
}
