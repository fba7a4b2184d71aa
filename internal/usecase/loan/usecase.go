package loan

import (
	"context"
	"errors"
	"time"

	domainLoan "mutuelle-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Usecase struct{ repo domainLoan.Repository }

func NewUsecase(r domainLoan.Repository) *Usecase { return &Usecase{repo: r} }

type LoanDTO struct {
	LoanID          string          `json:"loan_id"`
	MemberID        string          `json:"member_id"`
	Amount          decimal.Decimal `json:"amount"`
	Duration        int             `json:"duration_months"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	BeginDate       time.Time       `json:"begin_date"`
	EndDate         time.Time       `json:"end_date"`
	RepaymentAmount decimal.Decimal `json:"repayment_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Repaid          bool            `json:"is_repaid"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toDTO(l *domainLoan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.LoanID,
		MemberID:        l.MemberID,
		Amount:          l.Amount,
		Duration:        l.Duration,
		InterestRate:    l.InterestRate,
		BeginDate:       l.BeginDate,
		EndDate:         l.EndDate,
		RepaymentAmount: l.RepaymentAmount,
		AmountPaid:      l.AmountPaid,
		RemainingAmount: l.RemainingAmount,
		Repaid:          l.Repaid,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
	}
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainLoan.ErrNotFound
		}
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) List(ctx context.Context) ([]LoanDTO, error) {
	ls, err := u.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(ls), nil
}

func (u *Usecase) ListByMember(ctx context.Context, memberID string) ([]LoanDTO, error) {
	ls, err := u.repo.ListByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return toDTOs(ls), nil
}

func (u *Usecase) ListByStatus(ctx context.Context, status domainLoan.Status) ([]LoanDTO, error) {
	ls, err := u.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return toDTOs(ls), nil
}

func toDTOs(ls []domainLoan.Loan) []LoanDTO {
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, *toDTO(&ls[i]))
	}
	return out
}
