package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AudienceStaff   = "staff"
	AudienceCompany = "b2b"

	// CompanyCookie carries the company session for browser clients.
	CompanyCookie = "b2b_session"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// StaffClaims are embedded in staff access tokens.
type StaffClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// CompanyClaims are embedded in company session tokens.
type CompanyClaims struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens for both credential universes. The two
// secrets are distinct so a staff token never verifies as a company one.
type Issuer struct {
	staffSecret   []byte
	companySecret []byte
	ttl           time.Duration
	now           func() time.Time
}

func NewIssuer(staffSecret, companySecret string, ttl time.Duration) *Issuer {
	return &Issuer{
		staffSecret:   []byte(staffSecret),
		companySecret: []byte(companySecret),
		ttl:           ttl,
		now:           time.Now,
	}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

func (i *Issuer) registered(audience, subject string) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
}

func (i *Issuer) IssueStaff(id uuid.UUID, username, role string) (string, error) {
	claims := StaffClaims{
		UserID:           id.String(),
		Username:         username,
		Role:             role,
		RegisteredClaims: i.registered(AudienceStaff, id.String()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.staffSecret)
}

func (i *Issuer) IssueCompany(id uuid.UUID, name string) (string, error) {
	claims := CompanyClaims{
		CompanyID:        id.String(),
		CompanyName:      name,
		RegisteredClaims: i.registered(AudienceCompany, id.String()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.companySecret)
}

func (i *Issuer) ParseStaff(raw string) (Principal, error) {
	claims := &StaffClaims{}
	if err := i.parse(raw, claims, i.staffSecret, AudienceStaff); err != nil {
		return Principal{}, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: user_id", ErrInvalidToken)
	}
	return Staff(id, claims.Username, claims.Role), nil
}

func (i *Issuer) ParseCompany(raw string) (Principal, error) {
	claims := &CompanyClaims{}
	if err := i.parse(raw, claims, i.companySecret, AudienceCompany); err != nil {
		return Principal{}, err
	}
	id, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: company_id", ErrInvalidToken)
	}
	return Company(id, claims.CompanyName), nil
}

func (i *Issuer) parse(raw string, claims jwt.Claims, secret []byte, audience string) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
