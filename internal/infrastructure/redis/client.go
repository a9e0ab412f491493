package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/reconledger/internal/infrastructure/metrics"
)

// NewClient creates a new Redis client. When m is non-nil every command is
// recorded into the Redis metrics.
func NewClient(ctx context.Context, redisURL string, m *metrics.Metrics) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if m != nil {
		client.AddHook(MetricsHook{metrics: m})
	}

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// MetricsHook is a go-redis hook feeding command latency and failures into
// metrics. A cache miss (redis.Nil) is not a failure.
type MetricsHook struct {
	metrics *metrics.Metrics
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(m *metrics.Metrics) MetricsHook {
	return MetricsHook{metrics: m}
}

// DialHook implements redis.Hook.
func (h MetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

// ProcessHook implements redis.Hook.
func (h MetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.metrics.ObserveRedis(strings.ToLower(cmd.Name()), time.Since(start), commandError(err))
		return err
	}
}

// ProcessPipelineHook implements redis.Hook.
func (h MetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.metrics.ObserveRedis("pipeline", time.Since(start), commandError(err))
		return err
	}
}

func commandError(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
