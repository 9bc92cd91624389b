package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
)

type CompanyRepository struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]model.Company
}

func NewCompanyRepository() *CompanyRepository {
	return &CompanyRepository{companies: make(map[uuid.UUID]model.Company)}
}

func (r *CompanyRepository) Create(_ context.Context, c *model.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.companies {
		if strings.EqualFold(existing.Email, c.Email) || existing.IdentificationNumber == c.IdentificationNumber {
			return apierror.Conflict("company already exists", nil)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, apierror.NotFound("company not found")
	}
	return &c, nil
}

func (r *CompanyRepository) FindByEmail(_ context.Context, email string) (*model.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.companies {
		if strings.EqualFold(c.Email, strings.TrimSpace(email)) {
			return &c, nil
		}
	}
	return nil, apierror.NotFound("company not found")
}

func (r *CompanyRepository) List(_ context.Context, status model.CompanyStatus) ([]model.Company, error) {
	r.mu.RLock()
	out := make([]model.Company, 0, len(r.companies))
	for _, c := range r.companies {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CompanyRepository) Update(_ context.Context, c *model.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[c.ID]; !ok {
		return apierror.NotFound("company not found")
	}
	c.UpdatedAt = time.Now()
	r.companies[c.ID] = *c
	return nil
}
