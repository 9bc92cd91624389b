package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/metrics"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(ctx context.Context, payload json.RawMessage) error

func (f handlerFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

func encodeJob(t *testing.T, job Job) string {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return string(b)
}

func TestPoolProcess_Outcomes(t *testing.T) {
	boom := errors.New("relay down")
	p := NewPool(nil, map[string]Handler{
		"ok":        handlerFunc(func(context.Context, json.RawMessage) error { return nil }),
		"flaky":     handlerFunc(func(context.Context, json.RawMessage) error { return boom }),
		"malformed": handlerFunc(func(context.Context, json.RawMessage) error { return ErrPermanent }),
	}, 3)
	ctx := context.Background()

	_, out, _ := p.process(ctx, encodeJob(t, Job{Type: "ok"}))
	assert.Equal(t, outcomeDone, out)

	job, out, reason := p.process(ctx, encodeJob(t, Job{Type: "flaky"}))
	assert.Equal(t, outcomeRetry, out)
	assert.Equal(t, "relay down", reason)
	assert.Equal(t, 0, job.Attempts)

	_, out, _ = p.process(ctx, encodeJob(t, Job{Type: "flaky", Attempts: 2}))
	assert.Equal(t, outcomeDead, out)

	_, out, _ = p.process(ctx, encodeJob(t, Job{Type: "malformed"}))
	assert.Equal(t, outcomeDead, out)

	_, out, reason = p.process(ctx, encodeJob(t, Job{Type: "sms"}))
	assert.Equal(t, outcomeDead, out)
	assert.Contains(t, reason, "no handler")

	job, out, _ = p.process(ctx, "{not json")
	assert.Equal(t, outcomeDead, out)
	assert.True(t, json.Valid(job.Payload))
}

type fakeSender struct {
	mu   sync.Mutex
	sent []EmailJobPayload
	err  error
}

func (s *fakeSender) SendHTML(to []string, subject, html string, attachments ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, EmailJobPayload{To: to, Subject: subject, HTML: html, Attachments: attachments})
	return nil
}

func TestEmailWorker(t *testing.T) {
	sender := &fakeSender{}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})
	w := NewEmailWorker(sender, cb)
	ctx := context.Background()

	payload, _ := json.Marshal(EmailJobPayload{To: []string{"buyer@example.com"}, Subject: "hi", HTML: "<p>x</p>"})
	require.NoError(t, w.Process(ctx, payload))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hi", sender.sent[0].Subject)

	err := w.Process(ctx, json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrPermanent)

	empty, _ := json.Marshal(EmailJobPayload{Subject: "nobody"})
	assert.NoError(t, w.Process(ctx, empty))

	sender.err = errors.New("550 mailbox unavailable")
	assert.Error(t, w.Process(ctx, payload))
	assert.Error(t, w.Process(ctx, payload))
	assert.ErrorIs(t, w.Process(ctx, payload), infra.ErrCircuitOpen)
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []EmailJobPayload
	err  error
}

func (q *fakeQueue) EnqueueEmail(_ context.Context, p EmailJobPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, p)
	return nil
}

func sampleOrder() (*model.B2BOrder, *model.Company) {
	order := &model.B2BOrder{
		OrderNumber:     "B2B-TEST1",
		Subtotal:        decimal.NewFromInt(40),
		DiscountPercent: decimal.NewFromInt(20),
		DiscountAmount:  decimal.NewFromInt(8),
		TotalAmount:     decimal.NewFromInt(32),
		CreatedAt:       time.Now(),
		Items: []model.B2BOrderItem{
			{ProductName: "Hydrangea", Quantity: 3, PriceUnit: "piece", UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(30)},
		},
	}
	company := &model.Company{Name: "Green Leaf <Ltd>", Email: "buyer@greenleaf.example", Tier: "gold", PaymentTermsDays: 30}
	return order, company
}

func TestOrderNotifier_QueuesCompanyAndStaffMail(t *testing.T) {
	q := &fakeQueue{}
	dir := t.TempDir()
	n := NewOrderNotifier(q, dir, "orders@garden.example")
	order, company := sampleOrder()

	require.NoError(t, n.OrderPlaced(context.Background(), order, company))
	require.Len(t, q.jobs, 2)

	toCompany := q.jobs[0]
	assert.Equal(t, []string{"buyer@greenleaf.example"}, toCompany.To)
	assert.Contains(t, toCompany.Subject, "B2B-TEST1")
	assert.Contains(t, toCompany.HTML, "32.00")
	require.Len(t, toCompany.Attachments, 1)
	_, err := os.Stat(toCompany.Attachments[0])
	assert.NoError(t, err)

	assert.Equal(t, MailOrderCompany, toCompany.Kind)
	assert.Equal(t, "B2B-TEST1", toCompany.OrderNumber)

	toStaff := q.jobs[1]
	assert.Equal(t, MailOrderStaff, toStaff.Kind)
	assert.Equal(t, []string{"orders@garden.example"}, toStaff.To)
	assert.Contains(t, toStaff.HTML, "Green Leaf &lt;Ltd&gt;")
}

func TestOrderNotifier_ReportsQueueFailure(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis unavailable")}
	n := NewOrderNotifier(q, "", "")
	order, company := sampleOrder()

	err := n.OrderPlaced(context.Background(), order, company)
	assert.ErrorContains(t, err, "redis unavailable")
}

type fakeReporter struct {
	rows []dto.StockResponse
	err  error
}

func (r fakeReporter) LowStockReport(context.Context) ([]dto.StockResponse, error) {
	return r.rows, r.err
}

func TestLowStockCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := &fakeQueue{}
	cfg := LowStockCronConfig{
		Reporter: fakeReporter{rows: []dto.StockResponse{
			{ProductName: "Monstera", Quantity: 2, MinQuantity: 10, Location: "main warehouse"},
			{ProductName: "Fern", Quantity: 0, MinQuantity: 5, Location: "greenhouse"},
		}},
		Queue:      q,
		Metrics:    m,
		StaffEmail: "stock@garden.example",
		Interval:   time.Hour,
	}

	require.NoError(t, runLowStockCheck(context.Background(), cfg))
	require.Len(t, q.jobs, 1)
	assert.Contains(t, q.jobs[0].Subject, "2 product")
	assert.Contains(t, q.jobs[0].HTML, "Monstera")

	n, err := testutil.GatherAndCount(reg, "stock_low_products")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cfg.Reporter = fakeReporter{}
	require.NoError(t, runLowStockCheck(context.Background(), cfg))
	assert.Len(t, q.jobs, 1)

	cfg.Reporter = fakeReporter{err: errors.New("db down")}
	assert.Error(t, runLowStockCheck(context.Background(), cfg))
}

func TestComputeRetryBackoff(t *testing.T) {
	base := 90 * time.Second
	assert.Equal(t, 90*time.Second, computeRetryBackoff(base, 1))
	assert.Equal(t, 180*time.Second, computeRetryBackoff(base, 2))
	assert.Equal(t, 360*time.Second, computeRetryBackoff(base, 3))
	assert.Equal(t, maxRetryDelay, computeRetryBackoff(base, 10))
}

// With the relay down and the breaker open every run fails fast. The retry
// schedule must still carry the job past one full breaker window before it
// is dead-lettered.
func TestRetrySchedule_OutlastsOpenBreaker(t *testing.T) {
	cbCfg := infra.DefaultCBConfig()
	cb := infra.NewCircuitBreaker(cbCfg)
	sender := &fakeSender{err: errors.New("dial tcp 10.0.0.5:587: connection refused")}
	w := NewEmailWorker(sender, cb)
	ctx := context.Background()

	payload, _ := json.Marshal(EmailJobPayload{Kind: MailOrderCompany, OrderNumber: "B2B-OUTAGE", To: []string{"buyer@example.com"}, Subject: "s"})
	for i := 0; i < cbCfg.FailureThreshold; i++ {
		_ = w.Process(ctx, payload)
	}
	require.Equal(t, infra.CBOpen, cb.State())

	p := NewPool(nil, map[string]Handler{JobEmail: w}, DefaultMaxAttempts)
	assert.Greater(t, computeRetryBackoff(p.retryBase, 1), cbCfg.OpenTimeout)

	job := Job{ID: "j-1", Type: JobEmail, Payload: payload}
	var elapsed time.Duration
	for {
		got, out, reason := p.process(ctx, encodeJob(t, job))
		if out == outcomeDead {
			assert.Contains(t, reason, infra.ErrCircuitOpen.Error())
			break
		}
		require.Equal(t, outcomeRetry, out)
		got.Attempts++
		elapsed += computeRetryBackoff(p.retryBase, got.Attempts)
		job = got
	}
	assert.Equal(t, DefaultMaxAttempts-1, job.Attempts)
	assert.Greater(t, elapsed, cbCfg.OpenTimeout)
}

func TestNewDLQEntry_LiftsOrderDetails(t *testing.T) {
	payload, _ := json.Marshal(EmailJobPayload{
		Kind:        MailOrderStaff,
		OrderNumber: "B2B-LOYW3V28",
		To:          []string{"orders@garden.example"},
		Subject:     "New B2B order B2B-LOYW3V28 from Acme",
	})
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	e := newDLQEntry(QueueEmail, Job{ID: "j-9", Type: JobEmail, Payload: payload}, "relay down", 3, at)
	assert.Equal(t, "j-9", e.JobID)
	assert.Equal(t, "B2B-LOYW3V28", e.OrderNumber)
	assert.Equal(t, MailOrderStaff, e.MailKind)
	assert.Equal(t, []string{"orders@garden.example"}, e.Recipients)
	assert.Equal(t, "2024-03-01T09:30:00Z", e.FailedAt)
	assert.Equal(t, 3, e.Attempts)

	other := newDLQEntry(QueueEmail, Job{Type: "unknown", Payload: json.RawMessage(`"{not json"`)}, "undecodable", 1, at)
	assert.Empty(t, other.OrderNumber)
	assert.Empty(t, other.Recipients)
}
