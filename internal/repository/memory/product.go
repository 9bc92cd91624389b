// Package memory holds mutex-guarded in-memory implementations of the
// repository interfaces. Service and handler tests run against them; the
// exported Fail*/Conflicts fields inject storage faults.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]model.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[uuid.UUID]model.Product)}
}

// Put stores p, assigning an ID when missing, and returns the stored copy.
func (r *ProductRepository) Put(p model.Product) model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.mu.Lock()
	r.products[p.ID] = p
	r.mu.Unlock()
	return p
}

func (r *ProductRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apierror.NotFound("product not found")
	}
	return &p, nil
}

func (r *ProductRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) List(_ context.Context) ([]model.Product, error) {
	r.mu.RLock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
