// cmd/dlq prints the newest dead-lettered jobs of a queue, one JSON object per
// line, so staff can see which order confirmations were never delivered.
// Usage: go run ./cmd/dlq -limit 20
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/config"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	queue := flag.String("queue", worker.QueueEmail, "queue whose dead letters to list")
	limit := flag.Int64("limit", 50, "maximum number of entries")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := worker.ReadDLQ(ctx, rdb, *queue, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("dlq: read failed")
	}
	retrying, err := worker.DelayedLength(ctx, rdb, *queue)
	if err != nil {
		log.Fatal().Err(err).Msg("dlq: read delayed set failed")
	}

	enc := json.NewEncoder(os.Stdout)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			log.Fatal().Err(err).Msg("dlq: write failed")
		}
	}
	log.Info().
		Str("queue", *queue).
		Int("dead", len(entries)).
		Int64("retrying", retrying).
		Msg("dlq: done")
}
