package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"

	"github.com/rs/zerolog/log"
)

const (
	MailOrderCompany = "order_company"
	MailOrderStaff   = "order_staff"
	MailLowStock     = "low_stock"
)

// EmailJobPayload is the body of a JobEmail job. Kind and OrderNumber only
// label the job for the dead letter queue.
type EmailJobPayload struct {
	Kind        string   `json:"kind,omitempty"`
	OrderNumber string   `json:"order_number,omitempty"`
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	HTML        string   `json:"html"`
	Attachments []string `json:"attachments,omitempty"`
}

// Sender is satisfied by *infra.Mailer.
type Sender interface {
	SendHTML(to []string, subject, html string, attachments ...string) error
}

// EmailWorker delivers email jobs through a circuit breaker so a dead relay
// fails fast and jobs go back to the queue.
type EmailWorker struct {
	sender Sender
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(sender Sender, cb *infra.CircuitBreaker) *EmailWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &EmailWorker{sender: sender, cb: cb}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p EmailJobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: email payload: %v", ErrPermanent, err)
	}
	if len(p.To) == 0 {
		log.Warn().Str("subject", p.Subject).Msg("email_worker: no recipients, skipping")
		return nil
	}

	if err := w.cb.Execute(func() error {
		return w.sender.SendHTML(p.To, p.Subject, p.HTML, p.Attachments...)
	}); err != nil {
		return fmt.Errorf("email_worker: send %q: %w", p.Subject, err)
	}
	log.Info().Strs("to", p.To).Str("subject", p.Subject).Msg("email_worker: sent")
	return nil
}
