// Package auth resolves the caller of a request into a Principal. Staff and
// B2B companies are two independent credential universes with their own
// signing secrets; a request carries at most one effective principal.
package auth

import (
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"github.com/google/uuid"
)

type Kind int

const (
	KindNone Kind = iota
	KindStaff
	KindCompany
)

func (k Kind) String() string {
	switch k {
	case KindStaff:
		return "staff"
	case KindCompany:
		return "company"
	default:
		return "none"
	}
}

// Principal is the tagged union Staff | Company(id). The zero value is the
// unauthenticated caller.
type Principal struct {
	Kind Kind

	// staff
	StaffID  uuid.UUID
	Username string
	Role     string

	// company
	CompanyID   uuid.UUID
	CompanyName string
}

func Staff(id uuid.UUID, username, role string) Principal {
	return Principal{Kind: KindStaff, StaffID: id, Username: username, Role: role}
}

func Company(id uuid.UUID, name string) Principal {
	return Principal{Kind: KindCompany, CompanyID: id, CompanyName: name}
}

func (p Principal) IsStaff() bool       { return p.Kind == KindStaff }
func (p Principal) IsCompany() bool     { return p.Kind == KindCompany }
func (p Principal) Authenticated() bool { return p.Kind != KindNone }

// Actor is the identifier stamped on audit fields (createdBy, confirmedBy).
func (p Principal) Actor() string {
	switch p.Kind {
	case KindStaff:
		return p.Username
	case KindCompany:
		return "company:" + p.CompanyID.String()
	default:
		return ""
	}
}

// RequireStaff rejects unauthenticated callers with Unauthorized and company
// callers with Forbidden.
func RequireStaff(p Principal) error {
	switch p.Kind {
	case KindStaff:
		return nil
	case KindCompany:
		return apierror.Forbidden("staff access required")
	default:
		return apierror.ErrUnauthorized
	}
}

// RequireCompany is the mirror of RequireStaff for company-only operations.
func RequireCompany(p Principal) error {
	switch p.Kind {
	case KindCompany:
		return nil
	case KindStaff:
		return apierror.Forbidden("company account required")
	default:
		return apierror.ErrUnauthorized
	}
}

// RequireAny accepts either kind of principal.
func RequireAny(p Principal) error {
	if !p.Authenticated() {
		return apierror.ErrUnauthorized
	}
	return nil
}
