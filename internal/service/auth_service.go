package service

import (
	"context"
	"errors"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = apierror.Unauthorized("invalid credentials")

type AuthService interface {
	StaffLogin(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	// CompanyLogin only admits approved companies.
	CompanyLogin(ctx context.Context, req dto.CompanyLoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	staff     repository.StaffUserRepository
	companies repository.CompanyRepository
	issuer    *auth.Issuer
}

func NewAuthService(staff repository.StaffUserRepository, companies repository.CompanyRepository, issuer *auth.Issuer) AuthService {
	return &authService{staff: staff, companies: companies, issuer: issuer}
}

func (s *authService) StaffLogin(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.staff.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}

	token, err := s.issuer.IssueStaff(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
		Principal: dto.PrincipalResponse{
			Kind: auth.KindStaff.String(),
			ID:   user.ID.String(),
			Name: user.Name,
			Role: user.Role,
		},
	}, nil
}

func (s *authService) CompanyLogin(ctx context.Context, req dto.CompanyLoginRequest) (*dto.LoginResponse, error) {
	c, err := s.companies.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}
	switch c.Status {
	case model.CompanyApproved:
	case model.CompanyRejected:
		return nil, apierror.Unauthorized("company registration was rejected")
	default:
		return nil, apierror.Unauthorized("company registration is pending approval")
	}

	token, err := s.issuer.IssueCompany(c.ID, c.Name)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
		Principal: dto.PrincipalResponse{
			Kind: auth.KindCompany.String(),
			ID:   c.ID.String(),
			Name: c.Name,
		},
	}, nil
}
