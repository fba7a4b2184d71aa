package loanrequest

import (
	"context"

	"mutuelle-backend/internal/domain/member"
)

type Repository interface {
	Create(ctx context.Context, r *LoanRequest) error
	Save(ctx context.Context, r *LoanRequest) error
	// Delete is only legal while the request is still PENDING; the
	// usecase enforces that, the repository just removes the row.
	Delete(ctx context.Context, r *LoanRequest) error

	GetByRequestID(ctx context.Context, requestID string) (*LoanRequest, error)
	// GetByRequestIDForUpdate takes a row lock; callers must be inside a
	// transaction.
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*LoanRequest, error)
	GetByID(ctx context.Context, id uint64) (*LoanRequest, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*LoanRequest, error)

	// HasInFlightByMemberID reports whether the member already has a
	// request in PENDING or IN_REVIEW.
	HasInFlightByMemberID(ctx context.Context, memberID string) (bool, error)

	ListAll(ctx context.Context) ([]LoanRequest, error)
	ListByMemberID(ctx context.Context, memberID string) ([]LoanRequest, error)
	ListByStatus(ctx context.Context, status Status) ([]LoanRequest, error)
	// ListPendingForRole returns reviewable requests the given role has
	// not yet approved.
	ListPendingForRole(ctx context.Context, role member.Role) ([]LoanRequest, error)
}
