package auth

import (
	"net/http"
	"strings"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
)

// Resolver extracts one kind of principal from a request. ok is false when the
// request carries no valid credential of that kind.
type Resolver interface {
	Resolve(r *http.Request) (p Principal, ok bool)
}

type ResolverFunc func(r *http.Request) (Principal, bool)

func (f ResolverFunc) Resolve(r *http.Request) (Principal, bool) { return f(r) }

// Gate resolves the caller: staff first, then company.
type Gate struct {
	staff   Resolver
	company Resolver
}

func NewGate(staff, company Resolver) *Gate {
	return &Gate{staff: staff, company: company}
}

// NewTokenGate builds a Gate over bearer/cookie JWTs signed by issuer.
func NewTokenGate(issuer *Issuer) *Gate {
	return NewGate(StaffTokenResolver(issuer), CompanyTokenResolver(issuer))
}

// Authorize returns the caller's principal or apierror.ErrUnauthorized.
func (g *Gate) Authorize(r *http.Request) (Principal, error) {
	if g.staff != nil {
		if p, ok := g.staff.Resolve(r); ok {
			return p, nil
		}
	}
	if g.company != nil {
		if p, ok := g.company.Resolve(r); ok {
			return p, nil
		}
	}
	return Principal{}, apierror.ErrUnauthorized
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func StaffTokenResolver(issuer *Issuer) Resolver {
	return ResolverFunc(func(r *http.Request) (Principal, bool) {
		raw := bearer(r)
		if raw == "" {
			return Principal{}, false
		}
		p, err := issuer.ParseStaff(raw)
		return p, err == nil
	})
}

// CompanyTokenResolver accepts the session cookie, falling back to a bearer
// token for API clients.
func CompanyTokenResolver(issuer *Issuer) Resolver {
	return ResolverFunc(func(r *http.Request) (Principal, bool) {
		if c, err := r.Cookie(CompanyCookie); err == nil && c.Value != "" {
			if p, err := issuer.ParseCompany(c.Value); err == nil {
				return p, true
			}
		}
		raw := bearer(r)
		if raw == "" {
			return Principal{}, false
		}
		p, err := issuer.ParseCompany(raw)
		return p, err == nil
	})
}
