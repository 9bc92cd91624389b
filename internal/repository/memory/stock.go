package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRepository has no transactions. A record inserted by CreateTx stays
// provisional until SaveTx commits it: reads skip it and the next CreateTx
// replaces it, so a movement that fails in between leaves no record behind.
type StockRepository struct {
	mu          sync.RWMutex
	records     map[uuid.UUID]model.StockRecord
	provisional map[uuid.UUID]bool

	// CreateConflicts makes the next n CreateTx calls fail as a lost insert race.
	CreateConflicts int
	// SaveErr fails every SaveTx.
	SaveErr error
}

func NewStockRepository() *StockRepository {
	return &StockRepository{
		records:     make(map[uuid.UUID]model.StockRecord),
		provisional: make(map[uuid.UUID]bool),
	}
}

func (r *StockRepository) DB() *gorm.DB { return nil }

func (r *StockRepository) FindByProductID(_ context.Context, productID uuid.UUID) (*model.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[productID]
	if !ok || r.provisional[productID] {
		return nil, apierror.NotFound("stock record not found")
	}
	return &rec, nil
}

func (r *StockRepository) ListAll(_ context.Context) ([]model.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.StockRecord, 0, len(r.records))
	for id, rec := range r.records {
		if r.provisional[id] {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *StockRepository) LockTx(_ *gorm.DB, productID uuid.UUID) (*model.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[productID]
	if !ok || r.provisional[productID] {
		return nil, nil
	}
	return &rec, nil
}

func (r *StockRepository) CreateTx(_ *gorm.DB, rec *model.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateConflicts > 0 {
		r.CreateConflicts--
		return apierror.Conflict("stock record already exists", nil)
	}
	if _, ok := r.records[rec.ProductID]; ok && !r.provisional[rec.ProductID] {
		return apierror.Conflict("stock record already exists", nil)
	}
	rec.UpdatedAt = time.Now()
	r.records[rec.ProductID] = *rec
	r.provisional[rec.ProductID] = true
	return nil
}

func (r *StockRepository) SaveTx(_ *gorm.DB, rec *model.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	rec.UpdatedAt = time.Now()
	r.records[rec.ProductID] = *rec
	delete(r.provisional, rec.ProductID)
	return nil
}

// Set seeds a record directly.
func (r *StockRepository) Set(rec model.StockRecord) {
	r.mu.Lock()
	r.records[rec.ProductID] = rec
	delete(r.provisional, rec.ProductID)
	r.mu.Unlock()
}
