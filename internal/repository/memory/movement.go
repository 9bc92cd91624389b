package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRepository keeps movements in insertion order.
type MovementRepository struct {
	mu        sync.RWMutex
	movements []model.StockMovement

	// CreateErr fails every CreateTx.
	CreateErr error
}

func NewMovementRepository() *MovementRepository { return &MovementRepository{} }

func (r *MovementRepository) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *MovementRepository) List(_ context.Context, filter repository.MovementFilter) ([]model.StockMovement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	limit := filter.NormalizedLimit()
	out := make([]model.StockMovement, 0, limit)
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.movements[i]
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// All returns every movement oldest first.
func (r *MovementRepository) All() []model.StockMovement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.StockMovement(nil), r.movements...)
}
