package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MovementRequest records one stock movement. For kind=adjustment Quantity is
// the target quantity, not a delta.
type MovementRequest struct {
	Kind           string           `json:"kind"            validate:"required,oneof=incoming outgoing writeoff adjustment"`
	Quantity       int              `json:"quantity"        validate:"min=0,max=2147483647"`
	Reason         string           `json:"reason"          validate:"max=255"`
	Notes          string           `json:"notes"           validate:"max=2000"`
	DocumentNumber string           `json:"document_number" validate:"max=100"`
	UnitPrice      *decimal.Decimal `json:"unit_price"      validate:"omitempty,gte=0"`
	MinQuantity    *int             `json:"min_quantity"    validate:"omitempty,min=0,max=2147483647"`
	Location       *string          `json:"location"        validate:"omitempty,max=255"`
}

type StockFilter struct {
	LowStockOnly bool `form:"low_stock"`
}

type MovementFilter struct {
	ProductID string `form:"product_id"`
	Kind      string `form:"kind"`
	Limit     int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	PriceUnit   string  `json:"price_unit"`
	Quantity    int     `json:"quantity"`
	MinQuantity int     `json:"min_quantity"`
	Location    string  `json:"location"`
	IsLow       bool    `json:"is_low"`
	UpdatedAt   *string `json:"updated_at"`
}

type MovementResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	ProductName       string           `json:"product_name"`
	Kind              string           `json:"kind"`
	QuantityDelta     int              `json:"quantity_delta"`
	RequestedQuantity int              `json:"requested_quantity"`
	PreviousQuantity  int              `json:"previous_quantity"`
	NewQuantity       int              `json:"new_quantity"`
	Reason            string           `json:"reason"`
	Notes             string           `json:"notes"`
	DocumentNumber    string           `json:"document_number"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	TotalPrice        *decimal.Decimal `json:"total_price"`
	CreatedAt         string           `json:"created_at"`
	CreatedBy         string           `json:"created_by"`
}

type MovementResult struct {
	PreviousQuantity int              `json:"previous_quantity"`
	NewQuantity      int              `json:"new_quantity"`
	Movement         MovementResponse `json:"movement"`
}
