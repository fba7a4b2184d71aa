package mysql

import (
	"testing"
	"time"

	"mutuelle-backend/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	loanDomain "mutuelle-backend/internal/domain/loan"
	requestDomain "mutuelle-backend/internal/domain/loanrequest"
	repaymentDomain "mutuelle-backend/internal/domain/repayment"

	"github.com/shopspring/decimal"
)

// openTestDB migrates the full schema. SQLite rejects FOR UPDATE, so the
// locking clause is swallowed with a no-op builder; SQLite serializes
// writers on its own.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	gdb.ClauseBuilders["FOR"] = func(clause.Clause, clause.Builder) {}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func makeRequest(requestID, memberID string) *requestDomain.LoanRequest {
	return &requestDomain.LoanRequest{
		RequestID:    requestID,
		MemberID:     memberID,
		Amount:       decimal.NewFromInt(120000),
		Duration:     3,
		Reason:       "roof repair",
		InterestRate: decimal.NewFromFloat(5.0),
		AcceptTerms:  true,
		RequestDate:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:       requestDomain.StatusPending,
	}
}

func makeLoan(loanID string, requestFK uint64, memberID string) *loanDomain.Loan {
	begin := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return &loanDomain.Loan{
		LoanID:          loanID,
		LoanRequestID:   requestFK,
		MemberID:        memberID,
		Amount:          decimal.NewFromInt(120000),
		Duration:        3,
		InterestRate:    decimal.NewFromFloat(5.0),
		BeginDate:       begin,
		EndDate:         begin.AddDate(0, 3, 0),
		RepaymentAmount: decimal.NewFromInt(121500),
		RemainingAmount: decimal.NewFromInt(121500),
		Status:          loanDomain.StatusActive,
	}
}

func makeInstallment(repaymentID string, loanFK *uint64, requestFK *uint64, number int, due time.Time) *repaymentDomain.Repayment {
	return &repaymentDomain.Repayment{
		RepaymentID:       repaymentID,
		LoanFK:            loanFK,
		LoanRequestFK:     requestFK,
		Amount:            decimal.NewFromInt(40500),
		DueDate:           due,
		InstallmentNumber: number,
		TotalInstallments: 3,
		Status:            repaymentDomain.StatusPending,
	}
}
