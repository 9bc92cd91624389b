package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is owned by the catalogue admin; the ledger and order pipeline only
// read it (name, price and image snapshots, stock joins).
type Product struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string          `gorm:"index;not null"`
	Category   string          `gorm:"not null;default:''"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PriceUnit  string          `gorm:"not null;default:'piece'"`
	Image      string          `gorm:"not null;default:''"`
	TrackStock bool            `gorm:"not null;default:true"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Product) TableName() string { return "products" }
