package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultMinQuantity = 10
	DefaultLocation    = "main warehouse"

	// MaxQuantity is the largest value the INT quantity columns hold.
	MaxQuantity = math.MaxInt32
)

// StockRecord is the current quantity of one product. It is created lazily on
// the first movement and only ever changed together with a StockMovement.
type StockRecord struct {
	ProductID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity    int       `gorm:"not null;default:0"`
	MinQuantity int       `gorm:"not null;default:10"`
	Location    string    `gorm:"not null;default:'main warehouse'"`
	UpdatedAt   time.Time
}

func (StockRecord) TableName() string { return "stock_records" }

// NewStockRecord returns the default materialization used when a product has
// no record yet.
func NewStockRecord(productID uuid.UUID) *StockRecord {
	return &StockRecord{
		ProductID:   productID,
		Quantity:    0,
		MinQuantity: DefaultMinQuantity,
		Location:    DefaultLocation,
	}
}

// IsLow reports whether the record is at or below its reorder threshold.
func (r StockRecord) IsLow() bool { return r.Quantity <= r.MinQuantity }

type MovementKind string

const (
	MovementIncoming   MovementKind = "incoming"
	MovementOutgoing   MovementKind = "outgoing"
	MovementWriteoff   MovementKind = "writeoff"
	MovementAdjustment MovementKind = "adjustment"
)

func (k MovementKind) Valid() bool {
	switch k {
	case MovementIncoming, MovementOutgoing, MovementWriteoff, MovementAdjustment:
		return true
	}
	return false
}

// StockMovement is an immutable ledger entry.
//
// QuantityDelta is the applied change: the received amount for incoming, the
// amount actually removed (after clamping at zero) for outgoing/writeoff, and
// the signed new-previous difference for adjustment. RequestedQuantity keeps
// the number the caller sent.
type StockMovement struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Kind              MovementKind     `gorm:"type:varchar(20);not null;index"`
	QuantityDelta     int              `gorm:"not null"`
	RequestedQuantity int              `gorm:"not null"`
	PreviousQuantity  int              `gorm:"not null"`
	NewQuantity       int              `gorm:"not null"`
	Reason            string           `gorm:"not null;default:''"`
	Notes             string           `gorm:"not null;default:''"`
	DocumentNumber    string           `gorm:"not null;default:''"`
	UnitPrice         *decimal.Decimal `gorm:"type:decimal(10,2)"`
	TotalPrice        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt         time.Time        `gorm:"index"`
	CreatedBy         string           `gorm:"not null"`
}

func (StockMovement) TableName() string { return "stock_movements" }

// SignedDelta is the change this entry applied to the record; summing it over
// a product's log from zero reproduces the current quantity.
func (m StockMovement) SignedDelta() int {
	switch m.Kind {
	case MovementOutgoing, MovementWriteoff:
		return -m.QuantityDelta
	default:
		return m.QuantityDelta
	}
}
