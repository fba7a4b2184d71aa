package repayment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("repayment not found")
	ErrNotPayable         = errors.New("installment is not payable in its current status")
	ErrPartialPayment     = errors.New("payment must cover at least the installment amount")
	ErrDuplicateReference = errors.New("transaction reference already recorded")
	ErrScheduleExists     = errors.New("installment schedule already generated")
	ErrAlreadyRepaid      = errors.New("loan is already fully repaid")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// Payable reports whether a payment may be recorded against the
// installment. PAID is final; CANCELLED entries stay dead.
func (s Status) Payable() bool { return s == StatusPending || s == StatusOverdue }

// Valid reports whether s is one of the known installment statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Repayment is one scheduled installment, or an ad-hoc full-settlement
// entry (installment number 0).
type Repayment struct {
	ID          uint64 `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID string `gorm:"size:32;uniqueIndex:ux_repayments_repayment_id" json:"repayment_id"`

	// At least one of the two parents is set. A schedule generated for a
	// materialized loan carries both.
	LoanFK        *uint64 `gorm:"column:loan_id;index" json:"-"`
	LoanRequestFK *uint64 `gorm:"column:loan_request_id;index" json:"-"`

	Amount            decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	DueDate           time.Time       `gorm:"type:date;index" json:"due_date"`
	InstallmentNumber int             `json:"installment_number"`
	TotalInstallments int             `json:"total_installments"`
	Status            Status          `gorm:"type:varchar(16);default:'PENDING';index" json:"status"`

	PaymentDate          *time.Time `gorm:"type:date" json:"payment_date,omitempty"`
	PaymentMethod        string     `gorm:"size:32" json:"payment_method,omitempty"`
	TransactionReference *string    `gorm:"size:64;uniqueIndex:ux_repayments_tx_ref" json:"transaction_reference,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Repayment) TableName() string { return "repayments" }

// MarkPaid finalizes the installment. PAID implies a payment date.
func (r *Repayment) MarkPaid(at time.Time, method string, reference *string) {
	r.Status = StatusPaid
	r.PaymentDate = &at
	r.PaymentMethod = method
	r.TransactionReference = reference
}
