package testdb

import (
	"testing"

	"mutuelle-backend/internal/adapter/repository/mysql"
	"mutuelle-backend/internal/domain/uow"
	"mutuelle-backend/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open returns an isolated in-memory database with the full schema migrated.
// SQLite has no FOR UPDATE syntax, so the locking clause the repositories add
// is dropped with a no-op builder; SQLite serializes writers anyway.
func Open(t *testing.T) *gorm.DB {
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
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// Repos wires the real repository implementations over db.
func Repos(gdb *gorm.DB) uow.Repos {
	return uow.Repos{
		Requests:   mysql.NewLoanRequestRepository(gdb),
		Loans:      mysql.NewLoanRepository(gdb),
		Repayments: mysql.NewRepaymentRepository(gdb),
	}
}
