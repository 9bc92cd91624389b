package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobEmail = "email"

	// DefaultMaxAttempts is how many times a job runs before it goes to the DLQ.
	DefaultMaxAttempts = 3
)

// ErrPermanent marks a job failure that retrying cannot fix (bad payload).
var ErrPermanent = errors.New("permanent job failure")

// Job is the envelope stored in the Redis lists. ID keeps identical jobs
// distinct in the delayed retry set.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes the payload of one job type.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues jobs with LPUSH; the pool pops them with BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{ID: uuid.NewString(), Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}

// Pool consumes the job queues and routes each job to its handler by type.
// Failed jobs wait in the delayed set until their backoff has passed.
type Pool struct {
	rdb         *redis.Client
	handlers    map[string]Handler
	maxAttempts int
	retryBase   time.Duration
	now         func() time.Time
}

func NewPool(rdb *redis.Client, handlers map[string]Handler, maxAttempts int) *Pool {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Pool{
		rdb:         rdb,
		handlers:    handlers,
		maxAttempts: maxAttempts,
		retryBase:   DefaultRetryBase,
		now:         time.Now,
	}
}

// Start launches size goroutines plus the retry scheduler. Each worker blocks
// on BRPOP and exits when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, size int) {
	for i := 0; i < size; i++ {
		go p.run(ctx, i)
	}
	p.startRetryScheduler(ctx, QueueEmail)
	log.Info().Msgf("worker pool started with %d workers", size)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
		}
		// Wait up to 5s, then loop to re-check ctx.
		result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueEmail).Result()
		if err != nil || len(result) < 2 {
			continue
		}
		p.handle(ctx, result[0], result[1])
	}
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeDead
)

// handle runs one raw job and schedules a retry or dead-letters it on failure.
func (p *Pool) handle(ctx context.Context, queue, raw string) {
	job, out, reason := p.process(ctx, raw)
	switch out {
	case outcomeRetry:
		job.Attempts++
		at, err := p.scheduleRetry(ctx, queue, job)
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("worker: scheduling retry failed")
			SendToDLQ(ctx, p.rdb, queue, job, reason, job.Attempts)
			return
		}
		log.Info().
			Str("job_id", job.ID).
			Int("attempts", job.Attempts).
			Time("retry_at", at).
			Msg("worker: retry scheduled")
	case outcomeDead:
		SendToDLQ(ctx, p.rdb, queue, job, reason, job.Attempts+1)
	}
}

func (p *Pool) process(ctx context.Context, raw string) (Job, outcome, string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Msg("worker: undecodable job")
		quoted, _ := json.Marshal(raw)
		return Job{Type: "unknown", Payload: quoted}, outcomeDead, "undecodable job: " + err.Error()
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		return job, outcomeDead, "no handler for job type " + job.Type
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		return job, outcomeDone, ""
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts+1).Msg("worker: job failed")
	if errors.Is(err, ErrPermanent) || job.Attempts+1 >= p.maxAttempts {
		return job, outcomeDead, err.Error()
	}
	return job, outcomeRetry, err.Error()
}
