package repository

import (
	"context"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	FindByProductID(ctx context.Context, productID uuid.UUID) (*model.StockRecord, error)
	ListAll(ctx context.Context) ([]model.StockRecord, error)

	// Used inside the movement transaction; callers must pass the tx instance.
	// LockTx returns (nil, nil) when no record exists yet.
	LockTx(tx *gorm.DB, productID uuid.UUID) (*model.StockRecord, error)
	CreateTx(tx *gorm.DB, rec *model.StockRecord) error
	SaveTx(tx *gorm.DB, rec *model.StockRecord) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) DB() *gorm.DB { return r.db }

func (r *stockRepo) FindByProductID(ctx context.Context, productID uuid.UUID) (*model.StockRecord, error) {
	var rec model.StockRecord
	err := r.db.WithContext(ctx).First(&rec, "product_id = ?", productID).Error
	if err != nil {
		return nil, translate(err, "stock record")
	}
	return &rec, nil
}

func (r *stockRepo) ListAll(ctx context.Context) ([]model.StockRecord, error) {
	var recs []model.StockRecord
	err := r.db.WithContext(ctx).Find(&recs).Error
	return recs, err
}

// LockTx reads the record with SELECT ... FOR UPDATE, serializing concurrent
// movements on the same product until the transaction ends.
func (r *stockRepo) LockTx(tx *gorm.DB, productID uuid.UUID) (*model.StockRecord, error) {
	var recs []model.StockRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// CreateTx inserts a lazily materialized record. Two first movements racing on
// the same product collide on the primary key; the loser gets a Conflict and
// the service retries, this time finding the row to lock.
func (r *stockRepo) CreateTx(tx *gorm.DB, rec *model.StockRecord) error {
	return translate(tx.Create(rec).Error, "stock record")
}

func (r *stockRepo) SaveTx(tx *gorm.DB, rec *model.StockRecord) error {
	return tx.Save(rec).Error
}
