package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache implements usecase.ReportCache using Redis. Entries hold the
// exact payload a report was stored as, keyed by instrument and fingerprint.
type ReportCache struct {
	client *redis.Client
	prefix string
}

// NewReportCache creates a new ReportCache.
func NewReportCache(client *redis.Client) *ReportCache {
	return &ReportCache{
		client: client,
		prefix: "reconledger:report:",
	}
}

func (c *ReportCache) key(instrumentID, fingerprint string) string {
	return c.prefix + instrumentID + ":" + fingerprint
}

// Get returns the cached payload, or false on a miss.
func (c *ReportCache) Get(ctx context.Context, instrumentID, fingerprint string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, c.key(instrumentID, fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Set stores a payload with TTL.
func (c *ReportCache) Set(ctx context.Context, instrumentID, fingerprint string, payload []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(instrumentID, fingerprint), payload, ttl).Err()
}
