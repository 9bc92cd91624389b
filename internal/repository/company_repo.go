package repository

import (
	"context"
	"strings"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	FindByEmail(ctx context.Context, email string) (*model.Company, error)
	List(ctx context.Context, status model.CompanyStatus) ([]model.Company, error)
	Update(ctx context.Context, c *model.Company) error
}

type companyRepo struct{ db *gorm.DB }

func NewCompanyRepository(db *gorm.DB) CompanyRepository { return &companyRepo{db: db} }

func (r *companyRepo) Create(ctx context.Context, c *model.Company) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "company")
}

func (r *companyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "company")
	}
	return &c, nil
}

func (r *companyRepo) FindByEmail(ctx context.Context, email string) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&c).Error
	if err != nil {
		return nil, translate(err, "company")
	}
	return &c, nil
}

func (r *companyRepo) List(ctx context.Context, status model.CompanyStatus) ([]model.Company, error) {
	q := r.db.WithContext(ctx).Model(&model.Company{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var companies []model.Company
	err := q.Order("created_at DESC").Find(&companies).Error
	return companies, err
}

func (r *companyRepo) Update(ctx context.Context, c *model.Company) error {
	return translate(r.db.WithContext(ctx).Save(c).Error, "company")
}
