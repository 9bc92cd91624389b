package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0,max=2147483647"`
}

// CreateOrderRequest is submitted by a company principal. An empty Items
// slice is rejected by the service, not the validator.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"dive"`
	Notes string             `json:"notes" validate:"max=2000"`
}

type UpdateOrderRequest struct {
	Status         *string `json:"status"          validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	AdminNotes     *string `json:"admin_notes"     validate:"omitempty,max=2000"`
	TrackingNumber *string `json:"tracking_number" validate:"omitempty,max=100"`
}

type OrderFilter struct {
	Status string `form:"status"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	ProductImage string          `json:"product_image"`
	PriceUnit    string          `json:"price_unit"`
}

type CompanySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	CompanyID       string              `json:"company_id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Notes           string              `json:"notes"`
	AdminNotes      string              `json:"admin_notes,omitempty"`
	TrackingNumber  string              `json:"tracking_number"`
	ConfirmedAt     *string             `json:"confirmed_at"`
	ConfirmedBy     *string             `json:"confirmed_by,omitempty"`
	ProcessingAt    *string             `json:"processing_at"`
	ShippedAt       *string             `json:"shipped_at"`
	DeliveredAt     *string             `json:"delivered_at"`
	CancelledAt     *string             `json:"cancelled_at"`
	CancelledBy     *string             `json:"cancelled_by,omitempty"`
	CreatedAt       string              `json:"created_at"`
	Company         *CompanySummary     `json:"company,omitempty"`
	Items           []OrderItemResponse `json:"items"`
}
