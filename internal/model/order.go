package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// B2BOrder is a wholesale order header. DiscountPercent is a snapshot of the
// company's discount when the order was placed.
type B2BOrder struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber     string          `gorm:"uniqueIndex;not null"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes           string          `gorm:"not null;default:''"`
	AdminNotes      string          `gorm:"not null;default:''"`
	TrackingNumber  string          `gorm:"not null;default:''"`
	ConfirmedAt     *time.Time
	ConfirmedBy     *string
	ProcessingAt    *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelledBy     *string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Company *Company       `gorm:"foreignKey:CompanyID"`
	Items   []B2BOrderItem `gorm:"foreignKey:OrderID"`
}

func (B2BOrder) TableName() string { return "b2b_orders" }

// B2BOrderItem snapshots the product as it was when the order was placed.
type B2BOrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"not null"`
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ProductImage string          `gorm:"not null;default:''"`
	PriceUnit    string          `gorm:"not null;default:''"`
}

func (B2BOrderItem) TableName() string { return "b2b_order_items" }
