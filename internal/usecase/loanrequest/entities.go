package loanrequest

import (
	"time"

	domainRequest "mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/member"

	"github.com/shopspring/decimal"
)

type RequestDTO struct {
	RequestID    string          `json:"request_id"`
	MemberID     string          `json:"member_id"`
	Amount       decimal.Decimal `json:"amount"`
	Duration     int             `json:"duration_months"`
	Reason       string          `json:"reason"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	RequestDate  time.Time       `json:"request_date"`
	Status       string          `json:"status"`
	Repaid       bool            `json:"is_repaid"`
	LoanCreated  bool            `json:"loan_created"`

	RejectionReason string `json:"rejection_reason,omitempty"`
	RejectedBy      string `json:"rejected_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ProgressDTO struct {
	RequestID     string                 `json:"request_id"`
	Status        string                 `json:"status"`
	President     domainRequest.Approval `json:"president"`
	Secretary     domainRequest.Approval `json:"secretary"`
	Treasurer     domainRequest.Approval `json:"treasurer"`
	FullyApproved bool                   `json:"fully_approved"`
	LoanCreated   bool                   `json:"loan_created"`
}

func toDTO(r *domainRequest.LoanRequest) *RequestDTO {
	return &RequestDTO{
		RequestID:       r.RequestID,
		MemberID:        r.MemberID,
		Amount:          r.Amount,
		Duration:        r.Duration,
		Reason:          r.Reason,
		InterestRate:    r.InterestRate,
		RequestDate:     r.RequestDate,
		Status:          string(r.Status),
		Repaid:          r.Repaid,
		LoanCreated:     r.LoanCreated,
		RejectionReason: r.RejectionReason,
		RejectedBy:      string(r.RejectedBy),
		CreatedAt:       r.CreatedAt,
	}
}

func toDTOs(rs []domainRequest.LoanRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(rs))
	for i := range rs {
		out = append(out, *toDTO(&rs[i]))
	}
	return out
}

// roleParam narrows a wire string to an approver role.
func RoleParam(s string) (member.Role, bool) {
	r := member.Role(s)
	return r, r.Approver()
}
