package member

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("member not found")
	ErrForbidden = errors.New("role not authorized for this action")
	ErrInactive  = errors.New("member is not active")
)

type Role string

const (
	RoleMember    Role = "MEMBER"
	RolePresident Role = "PRESIDENT"
	RoleSecretary Role = "SECRETARY"
	RoleTreasurer Role = "TREASURER"
	RoleAdmin     Role = "ADMIN"
)

// ApproverRoles are the three gates a loan request must pass.
var ApproverRoles = []Role{RolePresident, RoleSecretary, RoleTreasurer}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RolePresident, RoleSecretary, RoleTreasurer, RoleAdmin:
		return true
	}
	return false
}

func (r Role) Approver() bool {
	return r == RolePresident || r == RoleSecretary || r == RoleTreasurer
}

// Member is the slice of the member directory the loan engine needs.
// Profile CRUD, auth and contribution accounting live elsewhere.
type Member struct {
	MemberID           string `json:"member_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               Role   `json:"role"`
	Active             bool   `json:"active"`
	RegularContributor bool   `json:"regular_contributor"`
	HasPriorDebt       bool   `json:"has_prior_debt"`
}

// Directory resolves member ids for eligibility checks.
type Directory interface {
	Lookup(ctx context.Context, memberID string) (*Member, error)
}

// Actor is the authenticated caller, resolved at the edge and threaded
// explicitly through every state-changing call.
type Actor struct {
	MemberID string
	Role     Role
}

// CanActAs reports whether the actor may perform an action reserved for
// required. ADMIN overrides every role gate.
func (a Actor) CanActAs(required Role) bool {
	return a.Role == required || a.Role == RoleAdmin
}
