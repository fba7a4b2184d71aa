package repayment

import (
	"context"
	"errors"
	"log"
	"time"

	domainLoan "mutuelle-backend/internal/domain/loan"
	domainRequest "mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/notify"
	domainRepayment "mutuelle-backend/internal/domain/repayment"
	"mutuelle-backend/internal/domain/uow"
	loanUsecase "mutuelle-backend/internal/usecase/loan"
	"mutuelle-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Usecase struct {
	uow      uow.UnitOfWork
	repos    uow.Repos // non-transactional, for queries
	notifier notify.Notifier
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, repos uow.Repos, n notify.Notifier) *Usecase {
	return &Usecase{
		uow:      tx,
		repos:    repos,
		notifier: n,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// event is a notification deferred until after the transaction commits.
type event struct {
	recipient string
	kind      notify.EventKind
	payload   map[string]any
}

func (u *Usecase) emit(ctx context.Context, events []event) {
	if u.notifier == nil {
		return
	}
	for _, e := range events {
		if err := u.notifier.Notify(ctx, e.recipient, e.kind, e.payload); err != nil {
			log.Printf("notify %s: %v", e.kind, err)
		}
	}
}

// GenerateScheduleForLoan expands a loan into its installment plan. The
// plan is generated once; a repaid loan accepts no further generation.
func (u *Usecase) GenerateScheduleForLoan(ctx context.Context, loanID string) ([]RepaymentDTO, error) {
	var dtos []RepaymentDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Repaid {
			return domainRepayment.ErrAlreadyRepaid
		}
		n, err := r.Repayments.CountByLoanFK(ctx, l.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domainRepayment.ErrScheduleExists
		}

		// A preview schedule generated while the request was still under
		// review is superseded here: its open rows are cancelled so the
		// request aggregate never carries two live schedules.
		preview, err := r.Repayments.ListByRequestFK(ctx, l.LoanRequestID)
		if err != nil {
			return err
		}
		for i := range preview {
			p := &preview[i]
			if p.Status != domainRepayment.StatusPending && p.Status != domainRepayment.StatusOverdue {
				continue
			}
			p.Status = domainRepayment.StatusCancelled
			if err := r.Repayments.Save(ctx, p); err != nil {
				return err
			}
		}

		specs := amortize(l.RepaymentAmount, l.Duration, l.BeginDate)
		rows := make([]domainRepayment.Repayment, 0, len(specs))
		for _, s := range specs {
			rows = append(rows, domainRepayment.Repayment{
				RepaymentID:       id.NewID32(),
				LoanFK:            &l.ID,
				LoanRequestFK:     &l.LoanRequestID,
				Amount:            s.Amount,
				DueDate:           s.DueDate,
				InstallmentNumber: s.Number,
				TotalInstallments: l.Duration,
				Status:            domainRepayment.StatusPending,
			})
		}
		if err := r.Repayments.CreateBatch(ctx, rows); err != nil {
			return err
		}
		dtos = toDTOs(rows)
		return nil
	})
	if err != nil {
		return nil, wrapLoanNotFound(err)
	}
	return dtos, nil
}

// GenerateScheduleForRequest builds a plan against a request still under
// review, so members can see the obligation before approval.
func (u *Usecase) GenerateScheduleForRequest(ctx context.Context, requestID string) ([]RepaymentDTO, error) {
	var dtos []RepaymentDTO
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.LoanRequest) error {
		if req.Status.Terminal() {
			return domainRequest.ErrNotReviewable
		}
		existing, err := r.Repayments.ListByRequestFK(ctx, req.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return domainRepayment.ErrScheduleExists
		}

		totalDue := loanUsecase.TotalRepayable(req.Amount, req.InterestRate, req.Duration)
		specs := amortize(totalDue, req.Duration, u.now())
		rows := make([]domainRepayment.Repayment, 0, len(specs))
		for _, s := range specs {
			rows = append(rows, domainRepayment.Repayment{
				RepaymentID:       id.NewID32(),
				LoanRequestFK:     &req.ID,
				Amount:            s.Amount,
				DueDate:           s.DueDate,
				InstallmentNumber: s.Number,
				TotalInstallments: req.Duration,
				Status:            domainRepayment.StatusPending,
			})
		}
		if err := r.Repayments.CreateBatch(ctx, rows); err != nil {
			return err
		}
		dtos = toDTOs(rows)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainRequest.ErrNotFound
		}
		return nil, err
	}
	return dtos, nil
}

// SweepOverdue flips PENDING installments past their due date to OVERDUE
// and reports how many changed. Idempotent: a second run without time
// advancing transitions nothing.
func (u *Usecase) SweepOverdue(ctx context.Context) (int, error) {
	var events []event
	count := 0
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rows, err := r.Repayments.ListPendingDueBefore(ctx, u.now())
		if err != nil {
			return err
		}
		for i := range rows {
			rp := &rows[i]
			rp.Status = domainRepayment.StatusOverdue
			if err := r.Repayments.Save(ctx, rp); err != nil {
				return err
			}
			count++

			recipient, err := u.recipientOf(ctx, r, rp)
			if err != nil {
				return err
			}
			events = append(events, event{
				recipient: recipient,
				kind:      notify.EventInstallmentLate,
				payload: map[string]any{
					"repayment_id": rp.RepaymentID,
					"due_date":     rp.DueDate,
					"amount":       rp.Amount,
				},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	u.emit(ctx, events)
	return count, nil
}

// recipientOf resolves the member behind an installment's parent.
func (u *Usecase) recipientOf(ctx context.Context, r uow.Repos, rp *domainRepayment.Repayment) (string, error) {
	if rp.LoanFK != nil {
		l, err := r.Loans.GetByID(ctx, *rp.LoanFK)
		if err != nil {
			return "", err
		}
		return l.MemberID, nil
	}
	if rp.LoanRequestFK != nil {
		req, err := r.Requests.GetByID(ctx, *rp.LoanRequestFK)
		if err != nil {
			return "", err
		}
		return req.MemberID, nil
	}
	return "", domainRepayment.ErrNotFound
}

func (u *Usecase) ListByLoan(ctx context.Context, loanID string) ([]RepaymentDTO, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, wrapLoanNotFound(err)
	}
	rows, err := u.repos.Repayments.ListByLoanFK(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

func (u *Usecase) ListByRequest(ctx context.Context, requestID string) ([]RepaymentDTO, error) {
	req, err := u.repos.Requests.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainRequest.ErrNotFound
		}
		return nil, err
	}
	rows, err := u.repos.Repayments.ListByRequestFK(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// ListByMember gathers a member's full installment history. Every row
// hangs off a request (loan rows carry the request FK too), so the
// member's requests cover the whole set.
func (u *Usecase) ListByMember(ctx context.Context, memberID string) ([]RepaymentDTO, error) {
	reqs, err := u.repos.Requests.ListByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	out := make([]RepaymentDTO, 0)
	for i := range reqs {
		rows, err := u.repos.Repayments.ListByRequestFK(ctx, reqs[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toDTOs(rows)...)
	}
	return out, nil
}

func (u *Usecase) ListByStatus(ctx context.Context, status domainRepayment.Status) ([]RepaymentDTO, error) {
	rows, err := u.repos.Repayments.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// NextDueForLoan returns the earliest still-payable installment.
func (u *Usecase) NextDueForLoan(ctx context.Context, loanID string) (*RepaymentDTO, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, wrapLoanNotFound(err)
	}
	rows, err := u.repos.Repayments.ListByLoanFK(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Status.Payable() {
			return toDTO(&rows[i]), nil
		}
	}
	return nil, domainRepayment.ErrNotFound
}

// TotalsForLoan reports the conserved quantities: repayment amount, paid
// so far, and the remaining balance.
func (u *Usecase) TotalsForLoan(ctx context.Context, loanID string) (*TotalsDTO, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, wrapLoanNotFound(err)
	}
	rows, err := u.repos.Repayments.ListByLoanFK(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	paid := paidSum(rows)
	remaining := l.RepaymentAmount.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &TotalsDTO{
		RepaymentAmount: l.RepaymentAmount,
		AmountPaid:      paid,
		RemainingAmount: remaining,
	}, nil
}
