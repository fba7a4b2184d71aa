package mysql

import (
	"context"

	requestDomain "mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/member"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRequestRepository struct{ db *gorm.DB }

func NewLoanRequestRepository(db *gorm.DB) *LoanRequestRepository {
	return &LoanRequestRepository{db: db}
}

func (r *LoanRequestRepository) Create(ctx context.Context, lr *requestDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Create(lr).Error
}

func (r *LoanRequestRepository) Save(ctx context.Context, lr *requestDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Save(lr).Error
}

func (r *LoanRequestRepository) Delete(ctx context.Context, lr *requestDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Delete(lr).Error
}

func (r *LoanRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

func (r *LoanRequestRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRequestRepository) GetByID(ctx context.Context, id uint64) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *LoanRequestRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*requestDomain.LoanRequest, error) {
	var out requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return &out, res.Error
}

func (r *LoanRequestRepository) HasInFlightByMemberID(ctx context.Context, memberID string) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&requestDomain.LoanRequest{}).
		Where("member_id = ? AND status IN ?", memberID,
			[]requestDomain.Status{requestDomain.StatusPending, requestDomain.StatusInReview}).
		Count(&n)
	return n > 0, res.Error
}

func (r *LoanRequestRepository) ListAll(ctx context.Context) ([]requestDomain.LoanRequest, error) {
	var out []requestDomain.LoanRequest
	res := r.db.WithContext(ctx).Order("request_date DESC, id DESC").Find(&out)
	return out, res.Error
}

func (r *LoanRequestRepository) ListByMemberID(ctx context.Context, memberID string) ([]requestDomain.LoanRequest, error) {
	var out []requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("request_date DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *LoanRequestRepository) ListByStatus(ctx context.Context, status requestDomain.Status) ([]requestDomain.LoanRequest, error) {
	var out []requestDomain.LoanRequest
	res := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("request_date DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *LoanRequestRepository) ListPendingForRole(ctx context.Context, role member.Role) ([]requestDomain.LoanRequest, error) {
	q := r.db.WithContext(ctx).
		Where("status IN ?", []requestDomain.Status{requestDomain.StatusPending, requestDomain.StatusInReview})
	switch role {
	case member.RolePresident:
		q = q.Where("president_approved = ?", false)
	case member.RoleSecretary:
		q = q.Where("secretary_approved = ?", false)
	case member.RoleTreasurer:
		q = q.Where("treasurer_approved = ?", false)
	default:
		return nil, member.ErrForbidden
	}
	var out []requestDomain.LoanRequest
	res := q.Order("request_date ASC, id ASC").Find(&out)
	return out, res.Error
}
