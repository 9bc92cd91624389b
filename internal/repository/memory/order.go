package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository has no transactions, so CreateTx stages a header and the
// next successful CreateItemsTx for it publishes header and items together.
// Staged headers are invisible to reads.
type OrderRepository struct {
	mu        sync.RWMutex
	orders    map[uuid.UUID]model.B2BOrder
	staged    map[uuid.UUID]model.B2BOrder
	items     map[uuid.UUID][]model.B2BOrderItem
	companies *CompanyRepository

	// CreateConflicts makes the next n CreateTx calls fail as an order number collision.
	CreateConflicts int
	// ItemsErr fails every CreateItemsTx without storing anything.
	ItemsErr error
	// DeleteErr fails every Delete.
	DeleteErr error
	// DeleteFailures fails the next n Delete calls.
	DeleteFailures int
}

// NewOrderRepository preloads Company from companies when it is non-nil.
func NewOrderRepository(companies *CompanyRepository) *OrderRepository {
	return &OrderRepository{
		orders:    make(map[uuid.UUID]model.B2BOrder),
		staged:    make(map[uuid.UUID]model.B2BOrder),
		items:     make(map[uuid.UUID][]model.B2BOrderItem),
		companies: companies,
	}
}

func (r *OrderRepository) DB() *gorm.DB { return nil }

func (r *OrderRepository) CreateTx(_ *gorm.DB, o *model.B2BOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateConflicts > 0 {
		r.CreateConflicts--
		return apierror.Conflict("order number already exists", nil)
	}
	for _, set := range []map[uuid.UUID]model.B2BOrder{r.orders, r.staged} {
		for _, existing := range set {
			if existing.OrderNumber == o.OrderNumber {
				return apierror.Conflict("order number already exists", nil)
			}
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	header := *o
	header.Items, header.Company = nil, nil
	r.staged[o.ID] = header
	return nil
}

func (r *OrderRepository) CreateItemsTx(_ *gorm.DB, items []model.B2BOrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ItemsErr != nil {
		return r.ItemsErr
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		id := items[i].OrderID
		r.items[id] = append(r.items[id], items[i])
		if header, ok := r.staged[id]; ok {
			r.orders[id] = header
			delete(r.staged, id)
		}
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.B2BOrder, error) {
	r.mu.RLock()
	o, ok := r.orders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apierror.NotFound("order not found")
	}
	r.hydrate(ctx, &o)
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]model.B2BOrder, error) {
	r.mu.RLock()
	out := make([]model.B2BOrder, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.CompanyID != nil && o.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	for i := range out {
		r.hydrate(ctx, &out[i])
	}
	return out, nil
}

func (r *OrderRepository) Update(_ context.Context, o *model.B2BOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return apierror.NotFound("order not found")
	}
	o.UpdatedAt = time.Now()
	header := *o
	header.Items, header.Company = nil, nil
	r.orders[o.ID] = header
	return nil
}

func (r *OrderRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	if r.DeleteFailures > 0 {
		r.DeleteFailures--
		return errors.New("delete failed")
	}
	if _, ok := r.staged[id]; ok {
		delete(r.staged, id)
		return nil
	}
	if _, ok := r.orders[id]; !ok {
		return apierror.NotFound("order not found")
	}
	delete(r.items, id)
	delete(r.orders, id)
	return nil
}

// Count returns the number of visible order headers.
func (r *OrderRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// Staged returns the number of headers still waiting for their items.
func (r *OrderRepository) Staged() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.staged)
}

func (r *OrderRepository) hydrate(ctx context.Context, o *model.B2BOrder) {
	r.mu.RLock()
	o.Items = append([]model.B2BOrderItem(nil), r.items[o.ID]...)
	r.mu.RUnlock()
	if r.companies != nil {
		if c, err := r.companies.FindByID(ctx, o.CompanyID); err == nil {
			o.Company = c
		}
	}
}
