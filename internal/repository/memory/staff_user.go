package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
)

type StaffUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.StaffUser
}

func NewStaffUserRepository() *StaffUserRepository {
	return &StaffUserRepository{users: make(map[uuid.UUID]model.StaffUser)}
}

func (r *StaffUserRepository) Create(_ context.Context, u *model.StaffUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return apierror.Conflict("staff user already exists", nil)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *StaffUserRepository) FindByUsername(_ context.Context, username string) (*model.StaffUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if !u.Active {
			continue
		}
		if u.Username == username || (u.Email != nil && strings.EqualFold(*u.Email, username)) {
			return &u, nil
		}
	}
	return nil, apierror.NotFound("staff user not found")
}

func (r *StaffUserRepository) FindByID(_ context.Context, id uuid.UUID) (*model.StaffUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apierror.NotFound("staff user not found")
	}
	return &u, nil
}
