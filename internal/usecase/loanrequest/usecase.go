package loanrequest

import (
	"context"
	"errors"
	"log"
	"time"

	domainLoan "mutuelle-backend/internal/domain/loan"
	domainRequest "mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/member"
	"mutuelle-backend/internal/domain/notify"
	"mutuelle-backend/internal/domain/uow"
	"mutuelle-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Materializer creates the Loan for a fully-approved request inside the
// approval transaction. Satisfied by usecase/loan.Materializer.
type Materializer interface {
	Materialize(ctx context.Context, r uow.Repos, req *domainRequest.LoanRequest) (*domainLoan.Loan, error)
}

type Usecase struct {
	requests     domainRequest.Repository
	members      member.Directory
	uow          uow.UnitOfWork
	materializer Materializer
	notifier     notify.Notifier
	defaultRate  decimal.Decimal
	now          func() time.Time
}

func NewUsecase(requests domainRequest.Repository, members member.Directory, tx uow.UnitOfWork,
	m Materializer, n notify.Notifier, defaultRate decimal.Decimal) *Usecase {
	return &Usecase{
		requests:     requests,
		members:      members,
		uow:          tx,
		materializer: m,
		notifier:     n,
		defaultRate:  defaultRate,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

type CreateInput struct {
	MemberID     string           `json:"member_id"`
	Amount       decimal.Decimal  `json:"amount"`
	Duration     int              `json:"duration_months"`
	Reason       string           `json:"reason"`
	AcceptTerms  bool             `json:"accept_terms"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
}

type UpdateInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Duration int             `json:"duration_months"`
	Reason   string          `json:"reason"`
}

// Create is the eligibility gate: terms accepted, positive amount and
// duration, active member, and at most one in-flight request per member.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	m, err := u.members.Lookup(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, member.ErrInactive
	}
	if !in.AcceptTerms {
		return nil, domainRequest.ErrTermsNotAccepted
	}
	if !in.Amount.IsPositive() {
		return nil, domainRequest.ErrInvalidAmount
	}
	if in.Duration <= 0 {
		return nil, domainRequest.ErrInvalidDuration
	}

	inFlight, err := u.requests.HasInFlightByMemberID(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}
	if inFlight {
		return nil, domainRequest.ErrInFlightRequest
	}

	rate := u.defaultRate
	if in.InterestRate != nil && in.InterestRate.IsPositive() {
		rate = *in.InterestRate
	}

	req := &domainRequest.LoanRequest{
		RequestID:    id.NewID32(),
		MemberID:     in.MemberID,
		Amount:       in.Amount,
		Duration:     in.Duration,
		Reason:       in.Reason,
		InterestRate: rate,
		AcceptTerms:  true,
		RequestDate:  u.now(),
		Status:       domainRequest.StatusPending,
	}
	if err := u.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	u.emit(ctx, req.MemberID, notify.EventRequestSubmitted, map[string]any{
		"request_id": req.RequestID,
		"amount":     req.Amount,
	})
	return toDTO(req), nil
}

// Update re-validates and amends a request that is still PENDING.
func (u *Usecase) Update(ctx context.Context, requestID string, in UpdateInput) (*RequestDTO, error) {
	if !in.Amount.IsPositive() {
		return nil, domainRequest.ErrInvalidAmount
	}
	if in.Duration <= 0 {
		return nil, domainRequest.ErrInvalidDuration
	}
	var dto *RequestDTO
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.LoanRequest) error {
		if req.Status != domainRequest.StatusPending {
			return domainRequest.ErrNotPending
		}
		req.Amount = in.Amount
		req.Duration = in.Duration
		req.Reason = in.Reason
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	return dto, wrapNotFound(err)
}

// Delete removes a request that never entered review. Anything past
// PENDING is an audit record and stays.
func (u *Usecase) Delete(ctx context.Context, requestID string) error {
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.LoanRequest) error {
		if req.Status != domainRequest.StatusPending {
			return domainRequest.ErrNotPending
		}
		return r.Requests.Delete(ctx, req)
	})
	return wrapNotFound(err)
}

// Approve advances the state machine for one role. The three roles are
// commutative; when the last flag lands the request flips to APPROVED and
// the Loan is materialized in the same transaction, exactly once.
func (u *Usecase) Approve(ctx context.Context, actor member.Actor, requestID string, role member.Role, comment string) (*RequestDTO, error) {
	if !role.Approver() {
		return nil, member.ErrForbidden
	}
	if !actor.CanActAs(role) {
		return nil, member.ErrForbidden
	}

	var (
		dto       *RequestDTO
		newLoan   *domainLoan.Loan
		finalized bool
	)
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.LoanRequest) error {
		if req.Status.Terminal() {
			return domainRequest.ErrNotReviewable
		}
		if req.ApprovalFor(role).Approved {
			return domainRequest.ErrAlreadyApproved
		}

		req.SetApproval(role, u.now(), comment)
		req.RecomputeStatus()

		if req.Status == domainRequest.StatusApproved {
			l, err := u.materializer.Materialize(ctx, r, req)
			if err != nil {
				return err
			}
			newLoan = l
			finalized = true
		}
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}

	u.emit(ctx, dto.MemberID, notify.EventRequestApproved, map[string]any{
		"request_id": dto.RequestID,
		"role":       string(role),
	})
	if finalized {
		u.emit(ctx, dto.MemberID, notify.EventRequestFinalized, map[string]any{"request_id": dto.RequestID})
		u.emit(ctx, dto.MemberID, notify.EventLoanCreated, map[string]any{
			"request_id": dto.RequestID,
			"loan_id":    newLoan.LoanID,
			"amount":     newLoan.Amount,
		})
	}
	return dto, nil
}

// Reject moves the request to its terminal REJECTED state. No loan is
// ever created afterwards.
func (u *Usecase) Reject(ctx context.Context, actor member.Actor, requestID string, reason string, role member.Role) (*RequestDTO, error) {
	if !role.Approver() {
		return nil, member.ErrForbidden
	}
	if !actor.CanActAs(role) {
		return nil, member.ErrForbidden
	}

	var dto *RequestDTO
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.LoanRequest) error {
		if req.Status.Terminal() {
			return domainRequest.ErrNotReviewable
		}
		req.Status = domainRequest.StatusRejected
		req.RejectionReason = reason
		req.RejectedBy = role
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}

	u.emit(ctx, dto.MemberID, notify.EventRequestRejected, map[string]any{
		"request_id": dto.RequestID,
		"reason":     reason,
	})
	return dto, nil
}

// ResetApproval clears one role's gate (ADMIN only) and recomputes the
// status. Refused once a loan exists: materialization is irreversible.
func (u *Usecase) ResetApproval(ctx context.Context, actor member.Actor, requestID string, role member.Role) (*RequestDTO, error) {
	if actor.Role != member.RoleAdmin {
		return nil, member.ErrForbidden
	}
	if !role.Approver() {
		return nil, member.ErrForbidden
	}

	var dto *RequestDTO
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.LoanRequest) error {
		if req.LoanCreated {
			return domainRequest.ErrLoanExists
		}
		if _, err := r.Loans.GetByRequestFK(ctx, req.ID); err == nil {
			return domainRequest.ErrLoanExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		req.ClearApproval(role)
		if req.Status == domainRequest.StatusRejected {
			req.RejectionReason = ""
			req.RejectedBy = ""
		}
		req.Status = domainRequest.StatusPending
		req.RecomputeStatus()
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		dto = toDTO(req)
		return nil
	})
	return dto, wrapNotFound(err)
}

func (u *Usecase) Get(ctx context.Context, requestID string) (*RequestDTO, error) {
	req, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return toDTO(req), nil
}

func (u *Usecase) ListAll(ctx context.Context) ([]RequestDTO, error) {
	rs, err := u.requests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(rs), nil
}

func (u *Usecase) ListByMember(ctx context.Context, memberID string) ([]RequestDTO, error) {
	rs, err := u.requests.ListByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rs), nil
}

func (u *Usecase) ListByStatus(ctx context.Context, status domainRequest.Status) ([]RequestDTO, error) {
	rs, err := u.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return toDTOs(rs), nil
}

// PendingForRole lists reviewable requests the given role still has to
// decide on.
func (u *Usecase) PendingForRole(ctx context.Context, role member.Role) ([]RequestDTO, error) {
	rs, err := u.requests.ListPendingForRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return toDTOs(rs), nil
}

// Progress returns the per-role approval detail for one request.
func (u *Usecase) Progress(ctx context.Context, requestID string) (*ProgressDTO, error) {
	req, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &ProgressDTO{
		RequestID:     req.RequestID,
		Status:        string(req.Status),
		President:     req.ApprovalFor(member.RolePresident),
		Secretary:     req.ApprovalFor(member.RoleSecretary),
		Treasurer:     req.ApprovalFor(member.RoleTreasurer),
		FullyApproved: req.FullyApproved(),
		LoanCreated:   req.LoanCreated,
	}, nil
}

// emit sends a notification best-effort; delivery failures are logged,
// never propagated.
func (u *Usecase) emit(ctx context.Context, recipient string, kind notify.EventKind, payload map[string]any) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, recipient, kind, payload); err != nil {
		log.Printf("notify %s: %v", kind, err)
	}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainRequest.ErrNotFound
	}
	return err
}
