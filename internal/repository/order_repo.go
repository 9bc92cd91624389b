package repository

import (
	"context"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter scopes an order listing. A nil CompanyID lists every company.
type OrderFilter struct {
	CompanyID *uuid.UUID
	Status    model.OrderStatus
}

type OrderRepository interface {
	// Used inside the order transaction; callers must pass the tx instance.
	// CreateTx inserts the header only; Items are ignored.
	CreateTx(tx *gorm.DB, o *model.B2BOrder) error
	CreateItemsTx(tx *gorm.DB, items []model.B2BOrderItem) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.B2BOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]model.B2BOrder, error)
	Update(ctx context.Context, o *model.B2BOrder) error
	// Delete removes items then header in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.B2BOrder) error {
	err := tx.Omit(clause.Associations).Create(o).Error
	return translate(err, "order number")
}

func (r *orderRepo) CreateItemsTx(tx *gorm.DB, items []model.B2BOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.B2BOrder, error) {
	var o model.B2BOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Company").
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "order")
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.B2BOrder, error) {
	q := r.db.WithContext(ctx).Model(&model.B2BOrder{}).
		Preload("Items").
		Preload("Company")
	if filter.CompanyID != nil {
		q = q.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var orders []model.B2BOrder
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Update(ctx context.Context, o *model.B2BOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.B2BOrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.B2BOrder{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "order")
		}
		return nil
	})
}
