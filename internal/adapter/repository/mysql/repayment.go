package mysql

import (
	"context"
	"time"

	repaymentDomain "mutuelle-backend/internal/domain/repayment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository {
	return &RepaymentRepository{db: db}
}

func (r *RepaymentRepository) Create(ctx context.Context, rp *repaymentDomain.Repayment) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *RepaymentRepository) CreateBatch(ctx context.Context, rps []repaymentDomain.Repayment) error {
	if len(rps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rps).Error
}

func (r *RepaymentRepository) Save(ctx context.Context, rp *repaymentDomain.Repayment) error {
	return r.db.WithContext(ctx).Save(rp).Error
}

func (r *RepaymentRepository) GetByRepaymentID(ctx context.Context, repaymentID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	res := r.db.WithContext(ctx).Where("repayment_id = ?", repaymentID).First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) GetByRepaymentIDForUpdate(ctx context.Context, repaymentID string) (*repaymentDomain.Repayment, error) {
	var out repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("repayment_id = ?", repaymentID).
		First(&out)
	return &out, res.Error
}

func (r *RepaymentRepository) ListByLoanFK(ctx context.Context, loanID uint64) ([]repaymentDomain.Repayment, error) {
	var out []repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("due_date ASC, installment_number ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *RepaymentRepository) ListByRequestFK(ctx context.Context, loanRequestID uint64) ([]repaymentDomain.Repayment, error) {
	var out []repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Where("loan_request_id = ?", loanRequestID).
		Order("due_date ASC, installment_number ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *RepaymentRepository) ListByStatus(ctx context.Context, status repaymentDomain.Status) ([]repaymentDomain.Repayment, error) {
	var out []repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("due_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *RepaymentRepository) CountByLoanFK(ctx context.Context, loanID uint64) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&repaymentDomain.Repayment{}).
		Where("loan_id = ?", loanID).
		Count(&n)
	return n, res.Error
}

func (r *RepaymentRepository) ListPendingDueBefore(ctx context.Context, cutoff time.Time) ([]repaymentDomain.Repayment, error) {
	var out []repaymentDomain.Repayment
	res := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", repaymentDomain.StatusPending, cutoff).
		Order("due_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *RepaymentRepository) ExistsByTransactionReference(ctx context.Context, reference string) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&repaymentDomain.Repayment{}).
		Where("transaction_reference = ?", reference).
		Count(&n)
	return n > 0, res.Error
}
