package service_test

import (
	"context"
	"sync"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	staff  = auth.Staff(uuid.New(), "maria", "admin")
	nobody = auth.Principal{}
)

func product(name string, price int64) model.Product {
	return model.Product{
		Name:      name,
		Category:  "plants",
		Price:     decimal.NewFromInt(price),
		PriceUnit: "piece",
		Active:    true,
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// recordingNotifier captures notifications; err is returned from every call.
type recordingNotifier struct {
	mu     sync.Mutex
	orders []string
	err    error
	done   chan struct{}
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{err: err, done: make(chan struct{}, 16)}
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o *model.B2BOrder, _ *model.Company) error {
	n.mu.Lock()
	n.orders = append(n.orders, o.OrderNumber)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}
