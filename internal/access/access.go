// Package access implements the tenant role hierarchy and the checks every
// core operation runs against the acting user before touching the ledger.
package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
)

type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Rank returns the position of r in the hierarchy member < manager < admin.
// Unknown roles rank 0 and therefore pass no check.
func (r Role) Rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	}

	return 0
}

func (r Role) Valid() bool { return r.Rank() > 0 }

// CanMutate reports whether r may create, update or delete ledger records.
func CanMutate(r Role) bool {
	return r.Rank() >= RoleManager.Rank()
}

// Actor is the already authenticated caller of a core operation.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      Role
}

// Require fails with Forbidden unless the actor belongs to a company and
// ranks at least min.
func (a Actor) Require(min Role) error {
	if a.CompanyID == uuid.Nil {
		return apperror.Forbidden("No company associated with user")
	}

	if a.Role.Rank() < min.Rank() {
		return apperror.Forbidden("Access denied. Requires %s role.", min)
	}

	return nil
}

// RequireRead is the check for read operations: any tenant member.
func (a Actor) RequireRead() error { return a.Require(RoleMember) }

// RequireMutate is the check for ledger mutations.
func (a Actor) RequireMutate() error { return a.Require(RoleManager) }

// RequireAdmin is the check for user and company management.
func (a Actor) RequireAdmin() error { return a.Require(RoleAdmin) }

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
