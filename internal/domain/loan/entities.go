package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("loan not found")

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRepaid  Status = "REPAID"
	StatusOverdue Status = "OVERDUE"
)

// Loan is the disbursed obligation. Created at most once per request,
// never deleted.
type Loan struct {
	ID            uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID        string `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	LoanRequestID uint64 `gorm:"uniqueIndex:ux_loans_request" json:"-"`
	MemberID      string `gorm:"size:32;index:idx_loans_member" json:"member_id"`

	Amount       decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	Duration     int             `gorm:"column:duration_months" json:"duration_months"`
	InterestRate decimal.Decimal `gorm:"type:decimal(6,2)" json:"interest_rate"`
	BeginDate    time.Time       `gorm:"type:date" json:"begin_date"`
	EndDate      time.Time       `gorm:"type:date" json:"end_date"`

	// RepaymentAmount is principal plus interest, fixed at
	// materialization. AmountPaid and RemainingAmount are derived from
	// the installment set, never trusted incrementally.
	RepaymentAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"repayment_amount"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount_paid"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"remaining_amount"`
	Repaid          bool            `gorm:"column:is_repaid" json:"is_repaid"`
	Status          Status          `gorm:"type:varchar(16);default:'ACTIVE';index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// ApplyDerived recomputes balance, repaid flag and status from the total
// of PAID installments. Remaining balance is clamped at zero.
func (l *Loan) ApplyDerived(totalPaid decimal.Decimal, now time.Time) {
	remaining := l.RepaymentAmount.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	l.RemainingAmount = remaining
	l.AmountPaid = l.RepaymentAmount.Sub(remaining)
	l.Repaid = remaining.IsZero()

	switch {
	case l.Repaid:
		l.Status = StatusRepaid
	case now.After(l.EndDate):
		l.Status = StatusOverdue
	default:
		l.Status = StatusActive
	}
}
