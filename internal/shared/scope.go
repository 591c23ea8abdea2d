package shared

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role enumerates caller roles.
type Role string

const (
	// RoleAdmin is bound to a single company.
	RoleAdmin Role = "ADMIN"
	// RoleOwner may act across every company.
	RoleOwner Role = "OWNER"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Identity is the authenticated caller as asserted by the bearer token.
type Identity struct {
	UserID    uuid.UUID
	Name      string
	Email     string
	Role      Role
	CompanyID uuid.UUID
}

// IsOwner reports whether the identity carries the OWNER role.
func (i Identity) IsOwner() bool {
	return i.Role == RoleOwner
}

// Scope is the tenant boundary an operation runs under. An unscoped
// scope is only ever produced for owners.
type Scope struct {
	ActorID   uuid.UUID
	Role      Role
	CompanyID uuid.UUID
	Unscoped  bool
}

// CompanyScope builds a scope bound to one company.
func CompanyScope(actor uuid.UUID, role Role, companyID uuid.UUID) Scope {
	return Scope{ActorID: actor, Role: role, CompanyID: companyID}
}

// GlobalScope builds the unscoped owner view.
func GlobalScope(actor uuid.UUID) Scope {
	return Scope{ActorID: actor, Role: RoleOwner, Unscoped: true}
}

// Allows reports whether a record owned by companyID is visible.
func (s Scope) Allows(companyID uuid.UUID) bool {
	if s.Unscoped {
		return true
	}
	return s.CompanyID != uuid.Nil && s.CompanyID == companyID
}

// CompanyFilter returns the company restriction for queries, nil when unscoped.
func (s Scope) CompanyFilter() *uuid.UUID {
	if s.Unscoped {
		return nil
	}
	id := s.CompanyID
	return &id
}

// ResolveScope turns the identity and an optional requested company
// (X-Company-ID) into an explicit scope.
func ResolveScope(id Identity, requested string) (Scope, error) {
	requested = strings.TrimSpace(requested)
	switch id.Role {
	case RoleAdmin:
		if id.CompanyID == uuid.Nil {
			return Scope{}, fmt.Errorf("%w: admin without company", ErrForbidden)
		}
		if requested != "" {
			reqID, err := uuid.Parse(requested)
			if err != nil {
				return Scope{}, fmt.Errorf("%w: invalid company id", ErrValidation)
			}
			if reqID != id.CompanyID {
				return Scope{}, fmt.Errorf("%w: company outside admin scope", ErrForbidden)
			}
		}
		return CompanyScope(id.UserID, id.Role, id.CompanyID), nil
	case RoleOwner:
		if requested != "" {
			reqID, err := uuid.Parse(requested)
			if err != nil {
				return Scope{}, fmt.Errorf("%w: invalid company id", ErrValidation)
			}
			return CompanyScope(id.UserID, id.Role, reqID), nil
		}
		if id.CompanyID != uuid.Nil {
			return CompanyScope(id.UserID, id.Role, id.CompanyID), nil
		}
		return GlobalScope(id.UserID), nil
	default:
		return Scope{}, fmt.Errorf("%w: unknown role", ErrForbidden)
	}
}

// CompanyDirectory resolves the default company for unscoped owners.
type CompanyDirectory interface {
	FirstCompanyID(ctx context.Context) (uuid.UUID, error)
}

// RequireCompany narrows an unscoped owner view to the first company.
// Scoped callers are returned unchanged.
func RequireCompany(ctx context.Context, s Scope, dir CompanyDirectory) (Scope, error) {
	if !s.Unscoped {
		return s, nil
	}
	if dir == nil {
		return Scope{}, fmt.Errorf("%w: no company found", ErrNotFound)
	}
	companyID, err := dir.FirstCompanyID(ctx)
	if err != nil {
		return Scope{}, err
	}
	return CompanyScope(s.ActorID, s.Role, companyID), nil
}
