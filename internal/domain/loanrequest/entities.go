package loanrequest

import (
	"errors"
	"time"

	"mutuelle-backend/internal/domain/member"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("loan request not found")
	ErrNotReviewable   = errors.New("loan request is no longer reviewable")
	ErrAlreadyApproved = errors.New("role has already approved this request")
	ErrNotPending      = errors.New("loan request is not pending")
	ErrLoanExists      = errors.New("a loan has already been created for this request")

	// Eligibility failures.
	ErrInFlightRequest  = errors.New("member already has a request under review")
	ErrTermsNotAccepted = errors.New("repayment terms must be accepted")
	ErrInvalidAmount    = errors.New("request amount must be positive")
	ErrInvalidDuration  = errors.New("duration in months must be positive")
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal states admit no further approval-flag mutation outside an
// administrative reset.
func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// Approval is one role's gate on a request.
type Approval struct {
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	Comment    string     `json:"comment,omitempty"`
}

type LoanRequest struct {
	ID        uint64 `gorm:"primaryKey;column:id" json:"-"`
	RequestID string `gorm:"size:32;uniqueIndex:ux_loan_requests_request_id" json:"request_id"`
	MemberID  string `gorm:"size:32;index:idx_loan_requests_member" json:"member_id"`

	Amount       decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	Duration     int             `gorm:"column:duration_months" json:"duration_months"`
	Reason       string          `gorm:"type:text" json:"reason"`
	InterestRate decimal.Decimal `gorm:"type:decimal(6,2)" json:"interest_rate"`
	AcceptTerms  bool            `json:"accept_terms"`
	RequestDate  time.Time       `gorm:"type:date" json:"request_date"`

	Status      Status `gorm:"type:varchar(16);default:'PENDING';index" json:"status"`
	Repaid      bool   `gorm:"column:is_repaid" json:"is_repaid"`
	LoanCreated bool   `gorm:"column:loan_created" json:"loan_created"`

	PresidentApproved    bool       `json:"president_approved"`
	PresidentApprovedAt  *time.Time `json:"president_approved_at,omitempty"`
	PresidentComment     string     `gorm:"type:text" json:"president_comment,omitempty"`
	SecretaryApproved    bool       `json:"secretary_approved"`
	SecretaryApprovedAt  *time.Time `json:"secretary_approved_at,omitempty"`
	SecretaryComment     string     `gorm:"type:text" json:"secretary_comment,omitempty"`
	TreasurerApproved    bool       `json:"treasurer_approved"`
	TreasurerApprovedAt  *time.Time `json:"treasurer_approved_at,omitempty"`
	TreasurerComment     string     `gorm:"type:text" json:"treasurer_comment,omitempty"`

	RejectionReason string      `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectedBy      member.Role `gorm:"type:varchar(16)" json:"rejected_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanRequest) TableName() string { return "loan_requests" }

func (r *LoanRequest) FullyApproved() bool {
	return r.PresidentApproved && r.SecretaryApproved && r.TreasurerApproved
}

func (r *LoanRequest) AnyApproved() bool {
	return r.PresidentApproved || r.SecretaryApproved || r.TreasurerApproved
}

// ApprovalFor returns the gate recorded for role.
func (r *LoanRequest) ApprovalFor(role member.Role) Approval {
	switch role {
	case member.RolePresident:
		return Approval{Approved: r.PresidentApproved, ApprovedAt: r.PresidentApprovedAt, Comment: r.PresidentComment}
	case member.RoleSecretary:
		return Approval{Approved: r.SecretaryApproved, ApprovedAt: r.SecretaryApprovedAt, Comment: r.SecretaryComment}
	case member.RoleTreasurer:
		return Approval{Approved: r.TreasurerApproved, ApprovedAt: r.TreasurerApprovedAt, Comment: r.TreasurerComment}
	}
	return Approval{}
}

// SetApproval stamps one role's gate.
func (r *LoanRequest) SetApproval(role member.Role, at time.Time, comment string) {
	switch role {
	case member.RolePresident:
		r.PresidentApproved, r.PresidentApprovedAt, r.PresidentComment = true, &at, comment
	case member.RoleSecretary:
		r.SecretaryApproved, r.SecretaryApprovedAt, r.SecretaryComment = true, &at, comment
	case member.RoleTreasurer:
		r.TreasurerApproved, r.TreasurerApprovedAt, r.TreasurerComment = true, &at, comment
	}
}

// ClearApproval reverts one role's gate.
func (r *LoanRequest) ClearApproval(role member.Role) {
	switch role {
	case member.RolePresident:
		r.PresidentApproved, r.PresidentApprovedAt, r.PresidentComment = false, nil, ""
	case member.RoleSecretary:
		r.SecretaryApproved, r.SecretaryApprovedAt, r.SecretaryComment = false, nil, ""
	case member.RoleTreasurer:
		r.TreasurerApproved, r.TreasurerApprovedAt, r.TreasurerComment = false, nil, ""
	}
}

// RecomputeStatus is the single authoritative transition function: status
// is a pure function of the three flags and explicit rejection.
func (r *LoanRequest) RecomputeStatus() {
	if r.Status == StatusRejected {
		return
	}
	switch {
	case r.FullyApproved():
		r.Status = StatusApproved
	case r.AnyApproved():
		r.Status = StatusInReview
	default:
		r.Status = StatusPending
	}
}
