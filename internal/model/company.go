package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CompanyStatus string

const (
	CompanyPending  CompanyStatus = "pending"
	CompanyApproved CompanyStatus = "approved"
	CompanyRejected CompanyStatus = "rejected"
)

func (s CompanyStatus) Valid() bool {
	switch s {
	case CompanyPending, CompanyApproved, CompanyRejected:
		return true
	}
	return false
}

// Company is a B2B tenant. DiscountPercent and PaymentTermsDays are a mutable
// projection of Tier; orders snapshot the discount at creation.
type Company struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string          `gorm:"not null"`
	IdentificationNumber string          `gorm:"uniqueIndex;not null"`
	ContactPerson        string          `gorm:"not null;default:''"`
	Email                string          `gorm:"uniqueIndex;not null"`
	Phone                string          `gorm:"not null;default:''"`
	Address              string          `gorm:"not null;default:''"`
	PasswordHash         string          `gorm:"not null"`
	Status               CompanyStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	Tier                 string          `gorm:"type:varchar(20);not null;default:'silver'"`
	DiscountPercent      decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	PaymentTermsDays     int             `gorm:"not null"`
	CreditLimit          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ApprovedBy           *string
	ApprovedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Company) TableName() string { return "companies" }
