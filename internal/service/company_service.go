package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/tier"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 12

// CompanyService manages B2B tenants: self-registration and staff approval,
// tier and commercial terms.
type CompanyService interface {
	Register(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.CompanyResponse, error)
	List(ctx context.Context, caller auth.Principal, filter dto.CompanyFilter) ([]dto.CompanyResponse, error)
	Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*dto.CompanyResponse, error)
	Update(ctx context.Context, caller auth.Principal, id uuid.UUID, req dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
	Tiers(ctx context.Context, caller auth.Principal) ([]dto.TierResponse, error)
}

type companyService struct {
	repo repository.CompanyRepository
	now  func() time.Time
}

func NewCompanyService(repo repository.CompanyRepository) CompanyService {
	return &companyService{repo: repo, now: time.Now}
}

func (s *companyService) Register(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.CompanyResponse, error) {
	terms, err := tier.Resolve(tier.Silver)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return nil, err
	}
	c := &model.Company{
		Name:                 strings.TrimSpace(req.Name),
		IdentificationNumber: strings.TrimSpace(req.IdentificationNumber),
		ContactPerson:        strings.TrimSpace(req.ContactPerson),
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:                req.Phone,
		Address:              req.Address,
		PasswordHash:         string(hash),
		Status:               model.CompanyPending,
		Tier:                 string(tier.Silver),
		DiscountPercent:      terms.DiscountPercent,
		PaymentTermsDays:     terms.PaymentTermsDays,
		CreditLimit:          decimal.Zero,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Str("company_id", c.ID.String()).Str("email", c.Email).Msg("b2b: company registered")
	resp := companyToResponse(c)
	return &resp, nil
}

func (s *companyService) List(ctx context.Context, caller auth.Principal, filter dto.CompanyFilter) ([]dto.CompanyResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	status := model.CompanyStatus(filter.Status)
	if status != "" && !status.Valid() {
		return nil, apierror.InvalidInput(fmt.Sprintf("unknown company status %q", filter.Status))
	}
	companies, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CompanyResponse, len(companies))
	for i := range companies {
		out[i] = companyToResponse(&companies[i])
	}
	return out, nil
}

// Get lets a company read only itself.
func (s *companyService) Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*dto.CompanyResponse, error) {
	if err := auth.RequireAny(caller); err != nil {
		return nil, err
	}
	if caller.IsCompany() && caller.CompanyID != id {
		return nil, apierror.NotFound("company not found")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := companyToResponse(c)
	return &resp, nil
}

// Update applies a staff patch. A tier change projects the tier's terms onto
// the company unless the patch overrides them; placed orders keep their own
// snapshot.
func (s *companyService) Update(ctx context.Context, caller auth.Principal, id uuid.UUID, req dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	if err := auth.RequireStaff(caller); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status := model.CompanyStatus(*req.Status)
		if !status.Valid() {
			return nil, apierror.InvalidInput(fmt.Sprintf("unknown company status %q", *req.Status))
		}
		if status == model.CompanyApproved && c.Status != model.CompanyApproved {
			now := s.now()
			actor := caller.Actor()
			c.ApprovedAt = &now
			c.ApprovedBy = &actor
		}
		c.Status = status
	}
	if req.Tier != nil {
		t, err := tier.Parse(*req.Tier)
		if err != nil {
			return nil, err
		}
		terms, err := tier.Resolve(t)
		if err != nil {
			return nil, err
		}
		c.Tier = string(t)
		c.DiscountPercent = terms.DiscountPercent
		c.PaymentTermsDays = terms.PaymentTermsDays
	}
	if req.DiscountPercent != nil {
		if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apierror.InvalidInput("discount percent must be between 0 and 100")
		}
		c.DiscountPercent = *req.DiscountPercent
	}
	if req.PaymentTermsDays != nil {
		if *req.PaymentTermsDays < 0 {
			return nil, apierror.InvalidInput("payment terms must not be negative")
		}
		c.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.CreditLimit != nil {
		if req.CreditLimit.IsNegative() {
			return nil, apierror.InvalidInput("credit limit must not be negative")
		}
		c.CreditLimit = *req.CreditLimit
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	log.Info().
		Str("company_id", c.ID.String()).
		Str("status", string(c.Status)).
		Str("tier", c.Tier).
		Str("by", caller.Actor()).
		Msg("b2b: company updated")
	resp := companyToResponse(c)
	return &resp, nil
}

func (s *companyService) Tiers(_ context.Context, caller auth.Principal) ([]dto.TierResponse, error) {
	if err := auth.RequireAny(caller); err != nil {
		return nil, err
	}
	out := make([]dto.TierResponse, 0, len(tier.All()))
	for _, t := range tier.All() {
		terms, err := tier.Resolve(t)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.TierResponse{
			Tier:             string(t),
			DiscountPercent:  terms.DiscountPercent,
			PaymentTermsDays: terms.PaymentTermsDays,
		})
	}
	return out, nil
}

func companyToResponse(c *model.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:                   c.ID.String(),
		Name:                 c.Name,
		IdentificationNumber: c.IdentificationNumber,
		ContactPerson:        c.ContactPerson,
		Email:                c.Email,
		Phone:                c.Phone,
		Address:              c.Address,
		Status:               string(c.Status),
		Tier:                 c.Tier,
		DiscountPercent:      c.DiscountPercent,
		PaymentTermsDays:     c.PaymentTermsDays,
		CreditLimit:          c.CreditLimit,
		ApprovedBy:           c.ApprovedBy,
		ApprovedAt:           formatTimePtr(c.ApprovedAt),
		CreatedAt:            formatTime(c.CreatedAt),
	}
}
