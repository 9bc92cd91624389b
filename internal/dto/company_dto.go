package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegisterCompanyRequest struct {
	Name                 string `json:"name"                  validate:"required,min=2,max=200"`
	IdentificationNumber string `json:"identification_number" validate:"required,min=5,max=20"`
	ContactPerson        string `json:"contact_person"        validate:"required,max=150"`
	Email                string `json:"email"                 validate:"required,email"`
	Phone                string `json:"phone"                 validate:"max=40"`
	Address              string `json:"address"               validate:"max=300"`
	Password             string `json:"password"              validate:"required,min=8"`
}

// UpdateCompanyRequest is a staff patch. A tier change recomputes discount and
// payment terms unless DiscountPercent/PaymentTermsDays are sent as well.
type UpdateCompanyRequest struct {
	Status           *string          `json:"status"             validate:"omitempty,oneof=pending approved rejected"`
	Tier             *string          `json:"tier"               validate:"omitempty,oneof=silver gold platinum"`
	DiscountPercent  *decimal.Decimal `json:"discount_percent"   validate:"omitempty,gte=0,lte=100"`
	PaymentTermsDays *int             `json:"payment_terms_days" validate:"omitempty,min=0"`
	CreditLimit      *decimal.Decimal `json:"credit_limit"       validate:"omitempty,gte=0"`
}

type CompanyFilter struct {
	Status string `form:"status"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CompanyResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	IdentificationNumber string          `json:"identification_number"`
	ContactPerson        string          `json:"contact_person"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
	Status               string          `json:"status"`
	Tier                 string          `json:"tier"`
	DiscountPercent      decimal.Decimal `json:"discount_percent"`
	PaymentTermsDays     int             `json:"payment_terms_days"`
	CreditLimit          decimal.Decimal `json:"credit_limit"`
	ApprovedBy           *string         `json:"approved_by"`
	ApprovedAt           *string         `json:"approved_at"`
	CreatedAt            string          `json:"created_at"`
}

type TierResponse struct {
	Tier             string          `json:"tier"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	PaymentTermsDays int             `json:"payment_terms_days"`
}
