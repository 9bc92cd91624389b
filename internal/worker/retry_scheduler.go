package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultRetryBase is the delay before the first retry. It exceeds the
	// email breaker's 60s cool-down so a retried job meets a half-open breaker.
	DefaultRetryBase = 90 * time.Second

	maxRetryDelay     = 15 * time.Minute
	retryTickInterval = 5 * time.Second
	retryBatchSize    = 50
)

// DelayedKey is the sorted set holding a queue's pending retries, scored by
// the unix millisecond at which each becomes due.
func DelayedKey(queue string) string { return queue + ":delayed" }

// DelayedLength reports how many jobs of queue are waiting for a retry.
func DelayedLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.ZCard(ctx, DelayedKey(queue)).Result()
}

// computeRetryBackoff doubles base for every attempt after the first, capped
// at maxRetryDelay.
func computeRetryBackoff(base time.Duration, attempts int) time.Duration {
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// scheduleRetry parks job in the delayed set. job.Attempts already counts the
// failed run.
func (p *Pool) scheduleRetry(ctx context.Context, queue string, job Job) (time.Time, error) {
	encoded, err := json.Marshal(job)
	if err != nil {
		return time.Time{}, err
	}
	at := p.now().Add(computeRetryBackoff(p.retryBase, job.Attempts))
	err = p.rdb.ZAdd(ctx, DelayedKey(queue), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: encoded,
	}).Err()
	return at, err
}

// startRetryScheduler moves due retries back onto queue every tick until ctx
// is cancelled.
func (p *Pool) startRetryScheduler(ctx context.Context, queue string) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()
		log.Info().Str("queue", queue).Msg("retry_scheduler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_scheduler: shutting down")
				return
			case <-ticker.C:
				n, err := p.promoteDue(ctx, queue)
				if err != nil {
					log.Error().Err(err).Str("queue", queue).Msg("retry_scheduler: promote failed")
				}
				if n > 0 {
					log.Info().Int("count", n).Str("queue", queue).Msg("retry_scheduler: jobs requeued")
				}
			}
		}
	}()
}

// promoteDue pushes up to retryBatchSize due jobs back onto queue. Only the
// replica whose ZREM removes a member pushes it.
func (p *Pool) promoteDue(ctx context.Context, queue string) (int, error) {
	key := DelayedKey(queue)
	due, err := p.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(p.now().UnixMilli(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		removed, err := p.rdb.ZRem(ctx, key, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := p.rdb.LPush(ctx, queue, member).Err(); err != nil {
			// Put it back as due now so the next tick tries again.
			p.rdb.ZAdd(ctx, key, redis.Z{Score: float64(p.now().UnixMilli()), Member: member})
			return moved, err
		}
		moved++
	}
	return moved, nil
}
