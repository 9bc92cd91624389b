package repository

import (
	"context"
	"strings"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffUserRepository interface {
	Create(ctx context.Context, u *model.StaffUser) error
	FindByUsername(ctx context.Context, username string) (*model.StaffUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StaffUser, error)
}

type staffUserRepo struct{ db *gorm.DB }

func NewStaffUserRepository(db *gorm.DB) StaffUserRepository { return &staffUserRepo{db: db} }

func (r *staffUserRepo) Create(ctx context.Context, u *model.StaffUser) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, "staff user")
}

func (r *staffUserRepo) FindByUsername(ctx context.Context, username string) (*model.StaffUser, error) {
	var u model.StaffUser
	// Accept login by username OR email (case-insensitive email match)
	err := r.db.WithContext(ctx).
		Where("(username = ? OR LOWER(email) = ?) AND active = true", username, strings.ToLower(username)).
		First(&u).Error
	if err != nil {
		return nil, translate(err, "staff user")
	}
	return &u, nil
}

func (r *staffUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StaffUser, error) {
	var u model.StaffUser
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "staff user")
	}
	return &u, nil
}
