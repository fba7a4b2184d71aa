package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error

	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	// GetByRequestFK looks a loan up by the originating request's numeric
	// id; the at-most-once materialization check.
	GetByRequestFK(ctx context.Context, loanRequestID uint64) (*Loan, error)

	ListAll(ctx context.Context) ([]Loan, error)
	ListByMemberID(ctx context.Context, memberID string) ([]Loan, error)
	ListByStatus(ctx context.Context, status Status) ([]Loan, error)
}
