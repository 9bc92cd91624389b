package repository

import (
	"context"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultMovementLimit = 50
	MaxMovementLimit     = 500
)

// MovementFilter defines filters for listing stock movements.
type MovementFilter struct {
	ProductID *uuid.UUID
	Kind      model.MovementKind
	Limit     int
}

// NormalizedLimit applies the default and the cap.
func (f MovementFilter) NormalizedLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultMovementLimit
	case f.Limit > MaxMovementLimit:
		return MaxMovementLimit
	default:
		return f.Limit
	}
}

// MovementRepository is append-only: there is no update or delete.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]model.StockMovement, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.StockMovement, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var movements []model.StockMovement
	err := q.Order("created_at DESC, id DESC").Limit(filter.NormalizedLimit()).Find(&movements).Error
	return movements, err
}
