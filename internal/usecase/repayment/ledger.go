package repayment

import (
	"context"
	"errors"

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

type RecordPaymentInput struct {
	RepaymentID string          `json:"repayment_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Method      string          `json:"payment_method"`
	Reference   string          `json:"transaction_reference"`
}

// RecordPayment settles one installment and cascades any surplus onto the
// following PENDING installments of the same loan or request, in due-date
// order. Partial payment of a single installment is not supported: the
// amount must cover at least the installment's due amount.
func (u *Usecase) RecordPayment(ctx context.Context, in RecordPaymentInput) (*RepaymentDTO, error) {
	// Resolve the parent before locking so every payment on a group takes
	// the parent lock first, in the same order as schedule generation.
	probe, err := u.repos.Repayments.GetByRepaymentID(ctx, in.RepaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainRepayment.ErrNotFound
		}
		return nil, err
	}

	var (
		dto    *RepaymentDTO
		events []event
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		parentLoan, parentReq, err := u.lockParent(ctx, r, probe)
		if err != nil {
			return err
		}
		// Once the request has materialized, only the loan schedule takes
		// payments; a leftover preview row must not mark the request repaid.
		if parentReq != nil && parentReq.LoanCreated {
			return domainRepayment.ErrNotPayable
		}

		inst, err := r.Repayments.GetByRepaymentIDForUpdate(ctx, in.RepaymentID)
		if err != nil {
			return err
		}
		if !inst.Status.Payable() {
			return domainRepayment.ErrNotPayable
		}
		if in.AmountPaid.LessThan(inst.Amount) {
			return domainRepayment.ErrPartialPayment
		}

		var ref *string
		if in.Reference != "" {
			exists, err := r.Repayments.ExistsByTransactionReference(ctx, in.Reference)
			if err != nil {
				return err
			}
			if exists {
				return domainRepayment.ErrDuplicateReference
			}
			ref = &in.Reference
		}

		now := u.now()

		// Overpayment cascade: an explicit loop, bounded by the finite
		// installment count. Each step either fully pays the next pending
		// installment or absorbs the rest of the surplus by shrinking its
		// due amount. absorbed tracks money that landed on cascaded rows.
		surplus := in.AmountPaid.Sub(inst.Amount)
		absorbed := decimal.Zero
		siblings, err := u.siblings(ctx, r, inst)
		if err != nil {
			return err
		}
		for i := range siblings {
			if !surplus.IsPositive() {
				break
			}
			s := &siblings[i]
			if s.ID == inst.ID || s.Status != domainRepayment.StatusPending {
				continue
			}
			if surplus.GreaterThanOrEqual(s.Amount) {
				surplus = surplus.Sub(s.Amount)
				absorbed = absorbed.Add(s.Amount)
				s.MarkPaid(now, in.Method, nil)
			} else {
				s.Amount = s.Amount.Sub(surplus)
				surplus = decimal.Zero
			}
			if err := r.Repayments.Save(ctx, s); err != nil {
				return err
			}
		}

		// The settled row records the money that stayed on it, so the PAID
		// amounts always sum to what was actually received and the derived
		// remaining balance matches the open installments exactly.
		inst.Amount = in.AmountPaid.Sub(absorbed)
		inst.MarkPaid(now, in.Method, ref)
		if err := r.Repayments.Save(ctx, inst); err != nil {
			return asDuplicateReference(err)
		}

		if err := u.recomputeParent(ctx, r, inst, parentLoan, parentReq, &events); err != nil {
			return err
		}

		recipient := ""
		if parentLoan != nil {
			recipient = parentLoan.MemberID
		} else if parentReq != nil {
			recipient = parentReq.MemberID
		}
		events = append([]event{{
			recipient: recipient,
			kind:      notify.EventInstallmentPaid,
			payload: map[string]any{
				"repayment_id": inst.RepaymentID,
				"amount_paid":  in.AmountPaid,
			},
		}}, events...)

		dto = toDTO(inst)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainRepayment.ErrNotFound
		}
		return nil, err
	}
	u.emit(ctx, events)
	return dto, nil
}

// PayInFull settles the remaining balance with one ad-hoc entry,
// bypassing the schedule; still-open installments are cancelled and the
// derived loan fields update exactly as incremental payments would.
func (u *Usecase) PayInFull(ctx context.Context, loanID, method, reference string) (*RepaymentDTO, error) {
	var (
		dto    *RepaymentDTO
		events []event
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		rows, err := r.Repayments.ListByLoanFK(ctx, l.ID)
		if err != nil {
			return err
		}
		remaining := l.RepaymentAmount.Sub(paidSum(rows))
		if !remaining.IsPositive() {
			return domainRepayment.ErrAlreadyRepaid
		}

		var ref *string
		if reference != "" {
			exists, err := r.Repayments.ExistsByTransactionReference(ctx, reference)
			if err != nil {
				return err
			}
			if exists {
				return domainRepayment.ErrDuplicateReference
			}
			ref = &reference
		}

		now := u.now()
		settle := &domainRepayment.Repayment{
			RepaymentID:   id.NewID32(),
			LoanFK:        &l.ID,
			LoanRequestFK: &l.LoanRequestID,
			Amount:        remaining,
			DueDate:       now,
		}
		settle.MarkPaid(now, method, ref)
		if err := r.Repayments.Create(ctx, settle); err != nil {
			return asDuplicateReference(err)
		}

		for i := range rows {
			s := &rows[i]
			if s.Status == domainRepayment.StatusPending || s.Status == domainRepayment.StatusOverdue {
				s.Status = domainRepayment.StatusCancelled
				if err := r.Repayments.Save(ctx, s); err != nil {
					return err
				}
			}
		}

		if err := u.recomputeParent(ctx, r, settle, l, nil, &events); err != nil {
			return err
		}
		dto = toDTO(settle)
		return nil
	})
	if err != nil {
		return nil, wrapLoanNotFound(err)
	}
	u.emit(ctx, events)
	return dto, nil
}

// lockParent takes the aggregate-root lock for an installment's group.
func (u *Usecase) lockParent(ctx context.Context, r uow.Repos, rp *domainRepayment.Repayment) (*domainLoan.Loan, *domainRequest.LoanRequest, error) {
	if rp.LoanFK != nil {
		l, err := r.Loans.GetByIDForUpdate(ctx, *rp.LoanFK)
		if err != nil {
			return nil, nil, err
		}
		return l, nil, nil
	}
	if rp.LoanRequestFK != nil {
		req, err := r.Requests.GetByIDForUpdate(ctx, *rp.LoanRequestFK)
		if err != nil {
			return nil, nil, err
		}
		return nil, req, nil
	}
	return nil, nil, domainRepayment.ErrNotFound
}

// siblings lists the full installment group of rp, ordered by due date.
func (u *Usecase) siblings(ctx context.Context, r uow.Repos, rp *domainRepayment.Repayment) ([]domainRepayment.Repayment, error) {
	if rp.LoanFK != nil {
		return r.Repayments.ListByLoanFK(ctx, *rp.LoanFK)
	}
	if rp.LoanRequestFK != nil {
		return r.Repayments.ListByRequestFK(ctx, *rp.LoanRequestFK)
	}
	return nil, domainRepayment.ErrNotFound
}

// recomputeParent rebuilds the parent's derived fields from the full
// installment set and flags the originating request once fully repaid.
func (u *Usecase) recomputeParent(ctx context.Context, r uow.Repos, rp *domainRepayment.Repayment,
	parentLoan *domainLoan.Loan, parentReq *domainRequest.LoanRequest, events *[]event) error {

	rows, err := u.siblings(ctx, r, rp)
	if err != nil {
		return err
	}
	totalPaid := paidSum(rows)
	now := u.now()

	if parentLoan != nil {
		wasRepaid := parentLoan.Repaid
		parentLoan.ApplyDerived(totalPaid, now)
		if err := r.Loans.Save(ctx, parentLoan); err != nil {
			return err
		}
		if parentLoan.Repaid && !wasRepaid {
			req, err := r.Requests.GetByIDForUpdate(ctx, parentLoan.LoanRequestID)
			if err != nil {
				return err
			}
			req.Repaid = true
			if err := r.Requests.Save(ctx, req); err != nil {
				return err
			}
			*events = append(*events, event{
				recipient: parentLoan.MemberID,
				kind:      notify.EventLoanRepaid,
				payload:   map[string]any{"loan_id": parentLoan.LoanID},
			})
		}
		return nil
	}

	if parentReq != nil {
		totalDue := loanUsecase.TotalRepayable(parentReq.Amount, parentReq.InterestRate, parentReq.Duration)
		if totalPaid.GreaterThanOrEqual(totalDue) && !parentReq.Repaid {
			parentReq.Repaid = true
			if err := r.Requests.Save(ctx, parentReq); err != nil {
				return err
			}
			*events = append(*events, event{
				recipient: parentReq.MemberID,
				kind:      notify.EventLoanRepaid,
				payload:   map[string]any{"request_id": parentReq.RequestID},
			})
		}
	}
	return nil
}

// asDuplicateReference maps the unique-index violation raised when two
// writers race past the existence check onto the domain conflict.
func asDuplicateReference(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepayment.ErrDuplicateReference
	}
	return err
}

func wrapLoanNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainLoan.ErrNotFound
	}
	return err
}
