package repayment

import (
	"time"

	domainRepayment "mutuelle-backend/internal/domain/repayment"

	"github.com/shopspring/decimal"
)

type RepaymentDTO struct {
	RepaymentID          string          `json:"repayment_id"`
	Amount               decimal.Decimal `json:"amount"`
	DueDate              time.Time       `json:"due_date"`
	InstallmentNumber    int             `json:"installment_number"`
	TotalInstallments    int             `json:"total_installments"`
	Status               string          `json:"status"`
	PaymentDate          *time.Time      `json:"payment_date,omitempty"`
	PaymentMethod        string          `json:"payment_method,omitempty"`
	TransactionReference *string         `json:"transaction_reference,omitempty"`
}

type TotalsDTO struct {
	RepaymentAmount decimal.Decimal `json:"repayment_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

func toDTO(r *domainRepayment.Repayment) *RepaymentDTO {
	return &RepaymentDTO{
		RepaymentID:          r.RepaymentID,
		Amount:               r.Amount,
		DueDate:              r.DueDate,
		InstallmentNumber:    r.InstallmentNumber,
		TotalInstallments:    r.TotalInstallments,
		Status:               string(r.Status),
		PaymentDate:          r.PaymentDate,
		PaymentMethod:        r.PaymentMethod,
		TransactionReference: r.TransactionReference,
	}
}

func toDTOs(rs []domainRepayment.Repayment) []RepaymentDTO {
	out := make([]RepaymentDTO, 0, len(rs))
	for i := range rs {
		out = append(out, *toDTO(&rs[i]))
	}
	return out
}

// paidSum totals the amounts of PAID entries; derived loan fields are
// always recomputed from this, never from incremental counters.
func paidSum(rs []domainRepayment.Repayment) decimal.Decimal {
	total := decimal.Zero
	for i := range rs {
		if rs[i].Status == domainRepayment.StatusPaid {
			total = total.Add(rs[i].Amount)
		}
	}
	return total
}

type installmentSpec struct {
	Amount  decimal.Decimal
	DueDate time.Time
	Number  int
}

// amortize splits totalDue into duration equal installments, round-half-up
// to 2 places, due at begin+k months. The rounding remainder is folded
// into the final installment so the schedule sums exactly to totalDue.
func amortize(totalDue decimal.Decimal, duration int, begin time.Time) []installmentSpec {
	per := totalDue.Div(decimal.NewFromInt(int64(duration))).Round(2)
	out := make([]installmentSpec, 0, duration)
	for k := 1; k <= duration; k++ {
		amt := per
		if k == duration {
			amt = totalDue.Sub(per.Mul(decimal.NewFromInt(int64(duration - 1))))
		}
		out = append(out, installmentSpec{
			Amount:  amt,
			DueDate: begin.AddDate(0, k, 0),
			Number:  k,
		})
	}
	return out
}
