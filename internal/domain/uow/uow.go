package uow

import (
	"context"

	"mutuelle-backend/internal/domain/loan"
	"mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/repayment"
)

type Repos struct {
	Requests   loanrequest.Repository
	Loans      loan.Repository
	Repayments repayment.Repository
}

// UnitOfWork runs a function against transaction-bound repositories.
// Every state-changing operation on the loan engine commits or rolls back
// as one unit; the *Tx convenience variants lock the aggregate root
// up-front so concurrent writers serialize per request/loan.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	WithinRequestTx(ctx context.Context, requestID string, fn func(r Repos, req *loanrequest.LoanRequest) error) error
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
