//go:build integration

// go test -tags integration ./internal/worker/... -v
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	url, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLive_OpenBreakerDefersInsteadOfDeadLettering(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	cbCfg := infra.DefaultCBConfig()
	cb := infra.NewCircuitBreaker(cbCfg)
	w := NewEmailWorker(&fakeSender{err: errors.New("connection refused")}, cb)
	payload, _ := json.Marshal(EmailJobPayload{
		Kind:        MailOrderCompany,
		OrderNumber: "B2B-LIVE1",
		To:          []string{"buyer@example.com"},
		Subject:     "Order B2B-LIVE1 received",
	})
	for i := 0; i < cbCfg.FailureThreshold; i++ {
		_ = w.Process(ctx, payload)
	}
	require.Equal(t, infra.CBOpen, cb.State())

	p := NewPool(rdb, map[string]Handler{JobEmail: w}, DefaultMaxAttempts)
	start := time.Now()
	p.now = func() time.Time { return start }

	p.handle(ctx, QueueEmail, encodeJob(t, Job{ID: "live-1", Type: JobEmail, Payload: payload}))

	dead, err := DLQLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.Zero(t, dead)
	delayed, err := DelayedLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)

	// Still inside the breaker window: nothing is due.
	p.now = func() time.Time { return start.Add(cbCfg.OpenTimeout) }
	n, err := p.promoteDue(ctx, QueueEmail)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, rdb.LLen(ctx, QueueEmail).Val())

	// Drive the remaining attempts, advancing the clock past each backoff.
	clock := start
	for attempt := 1; attempt < DefaultMaxAttempts; attempt++ {
		clock = clock.Add(computeRetryBackoff(p.retryBase, attempt))
		at := clock
		p.now = func() time.Time { return at }
		n, err := p.promoteDue(ctx, QueueEmail)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		raw, err := rdb.RPop(ctx, QueueEmail).Result()
		require.NoError(t, err)
		p.handle(ctx, QueueEmail, raw)
	}

	entries, err := ReadDLQ(ctx, rdb, QueueEmail, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "live-1", entries[0].JobID)
	assert.Equal(t, "B2B-LIVE1", entries[0].OrderNumber)
	assert.Equal(t, DefaultMaxAttempts, entries[0].Attempts)
	assert.Greater(t, clock.Sub(start), cbCfg.OpenTimeout)

	delayed, err = DelayedLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.Zero(t, delayed)
}
