package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces the dead letter list of each queue: dlq:{queue}.
const DLQPrefix = "dlq:"

// DLQEntry is a job that will not be retried. For email jobs the order number,
// mail kind and recipients are lifted out of the payload so staff can tell
// which customer never got a confirmation without decoding it.
type DLQEntry struct {
	JobID         string          `json:"job_id,omitempty"`
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	MailKind      string          `json:"mail_kind,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty"`
	Recipients    []string        `json:"recipients,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

func newDLQEntry(queue string, job Job, reason string, attempts int, at time.Time) DLQEntry {
	entry := DLQEntry{
		JobID:         job.ID,
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      at.UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
	if job.Type == JobEmail {
		var mail EmailJobPayload
		if json.Unmarshal(job.Payload, &mail) == nil {
			entry.MailKind = mail.Kind
			entry.OrderNumber = mail.OrderNumber
			entry.Recipients = mail.To
		}
	}
	return entry
}

// SendToDLQ parks a job that will not be retried. Failures are logged only.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string, attempts int) {
	entry := newDLQEntry(queue, job, reason, attempts, time.Now())
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}
	key := DLQPrefix + queue
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Str("order_number", entry.OrderNumber).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("mail_kind", entry.MailKind).
		Str("order_number", entry.OrderNumber).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ReadDLQ returns up to limit entries of queue's dead letter list, newest first.
func ReadDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: skipping undecodable entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
