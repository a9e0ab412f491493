package redis

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iho/reconledger/internal/domain"
)

// ErrLockNotHeld is returned by Release when the token no longer owns the key,
// either because the lock expired or another run took it over.
var ErrLockNotHeld = errors.New("run lock not held")

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLocker implements usecase.RunLocker with SET NX and a token-checked release.
type RunLocker struct {
	client *redis.Client
	prefix string
}

// NewRunLocker creates a new RunLocker.
func NewRunLocker(client *redis.Client) *RunLocker {
	return &RunLocker{
		client: client,
		prefix: "reconledger:lock:",
	}
}

// Acquire takes the lock for key, returning domain.ErrConcurrentRunConflict
// when another run holds it.
func (l *RunLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := ulid.Make().String()

	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrConcurrentRunConflict
	}

	return token, nil
}

// Release frees the lock if token still owns it.
func (l *RunLocker) Release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
