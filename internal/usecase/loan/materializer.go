package loan

import (
	"context"
	"errors"
	"time"

	domainLoan "mutuelle-backend/internal/domain/loan"
	"mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/uow"
	"mutuelle-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// TotalRepayable is principal plus simple interest over the term:
// amount + amount * (rate/100) * (months/12), rounded half-up to 2 places.
func TotalRepayable(amount, ratePercent decimal.Decimal, durationMonths int) decimal.Decimal {
	interest := amount.
		Mul(ratePercent).Div(hundred).
		Mul(decimal.NewFromInt(int64(durationMonths))).Div(monthsInYear)
	return amount.Add(interest).Round(2)
}

// Materializer converts a fully-approved request into a Loan, at most
// once. It runs inside the caller's transaction, which must hold the
// request row lock.
type Materializer struct {
	now func() time.Time
}

func NewMaterializer() *Materializer {
	return &Materializer{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source; tests only.
func (m *Materializer) WithClock(now func() time.Time) *Materializer {
	m.now = now
	return m
}

// Materialize is idempotent: if a loan already references the request it
// is returned unchanged. On creation the request's loan_created flag is
// set; the caller persists the request in the same transaction.
func (m *Materializer) Materialize(ctx context.Context, r uow.Repos, req *loanrequest.LoanRequest) (*domainLoan.Loan, error) {
	existing, err := r.Loans.GetByRequestFK(ctx, req.ID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	begin := m.now()
	l := &domainLoan.Loan{
		LoanID:          id.NewID32(),
		LoanRequestID:   req.ID,
		MemberID:        req.MemberID,
		Amount:          req.Amount,
		Duration:        req.Duration,
		InterestRate:    req.InterestRate,
		BeginDate:       begin,
		EndDate:         begin.AddDate(0, req.Duration, 0),
		RepaymentAmount: TotalRepayable(req.Amount, req.InterestRate, req.Duration),
		AmountPaid:      decimal.Zero,
		Repaid:          false,
		Status:          domainLoan.StatusActive,
	}
	l.RemainingAmount = l.RepaymentAmount

	if err := r.Loans.Create(ctx, l); err != nil {
		return nil, err
	}
	req.LoanCreated = true
	return l, nil
}
