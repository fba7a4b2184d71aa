package repayment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Repayment) error
	CreateBatch(ctx context.Context, rs []Repayment) error
	Save(ctx context.Context, r *Repayment) error

	GetByRepaymentID(ctx context.Context, repaymentID string) (*Repayment, error)
	GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*Repayment, error)

	// Listings are ordered by due date ascending, then installment number;
	// the overpayment cascade depends on that order.
	ListByLoanFK(ctx context.Context, loanID uint64) ([]Repayment, error)
	ListByRequestFK(ctx context.Context, loanRequestID uint64) ([]Repayment, error)
	ListByStatus(ctx context.Context, status Status) ([]Repayment, error)
	CountByLoanFK(ctx context.Context, loanID uint64) (int64, error)

	// ListPendingDueBefore feeds the overdue sweep: PENDING rows whose due
	// date is strictly before cutoff.
	ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]Repayment, error)

	ExistsByTransactionReference(ctx context.Context, reference string) (bool, error)
}
