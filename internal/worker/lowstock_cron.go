package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/metrics"

	"github.com/bsm/redislock"
	"github.com/rs/zerolog/log"
)

const lowStockLockKey = "lock:low-stock-check"

// LowStockReporter is satisfied by service.StockService.
type LowStockReporter interface {
	LowStockReport(ctx context.Context) ([]dto.StockResponse, error)
}

type LowStockCronConfig struct {
	Reporter   LowStockReporter
	Queue      EmailQueue
	Metrics    *metrics.Metrics
	StaffEmail string
	Interval   time.Duration
	// Locker keeps several replicas from mailing the same report. Nil runs
	// the check unguarded.
	Locker *redislock.Client
}

var lowStockTemplate = template.Must(template.New("low").Parse(`<h2>{{len .}} product(s) at or below reorder level</h2>
<table cellpadding="4">
<tr><th align="left">Product</th><th>Quantity</th><th>Min</th><th align="left">Location</th></tr>
{{range .}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{.MinQuantity}}</td><td>{{.Location}}</td></tr>
{{end}}</table>`))

// StartLowStockCron ticks every cfg.Interval until ctx is cancelled.
func StartLowStockCron(ctx context.Context, cfg LowStockCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		log.Info().Dur("interval", cfg.Interval).Msg("low_stock_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("low_stock_cron: shutting down")
				return
			case <-ticker.C:
				if err := runLowStockCheck(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("low_stock_cron: check failed")
				}
			}
		}
	}()
}

func runLowStockCheck(ctx context.Context, cfg LowStockCronConfig) error {
	if cfg.Locker != nil {
		// Never released: it expires on its own so other replicas skip the
		// rest of this interval.
		_, err := cfg.Locker.Obtain(ctx, lowStockLockKey, cfg.Interval/2, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			log.Debug().Msg("low_stock_cron: another instance holds the lock, skipping tick")
			return nil
		}
		if err != nil {
			return fmt.Errorf("obtain lock: %w", err)
		}
	}

	rows, err := cfg.Reporter.LowStockReport(ctx)
	if err != nil {
		return err
	}
	cfg.Metrics.SetLowStock(len(rows))
	if len(rows) == 0 || cfg.StaffEmail == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := lowStockTemplate.Execute(&buf, rows); err != nil {
		return err
	}
	log.Info().Int("products", len(rows)).Msg("low_stock_cron: sending report")
	return cfg.Queue.EnqueueEmail(ctx, EmailJobPayload{
		Kind:    MailLowStock,
		To:      []string{cfg.StaffEmail},
		Subject: fmt.Sprintf("Low stock: %d product(s)", len(rows)),
		HTML:    buf.String(),
	})
}
