package db

import (
	"log"
	"time"

	"mutuelle-backend/internal/domain/loan"
	"mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/repayment"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector lets tests inject a mocked *sql.DB.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// Duplicate-key violations surface as gorm.ErrDuplicatedKey so the
		// ledger can map them to its conflict error.
		TranslateError: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Println("gorm: connected")
	return db, nil
}

// Migrate creates/updates the three loan-engine tables. Statuses are
// plain varchar so the same models run on MySQL and the sqlite test DB.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loanrequest.LoanRequest{},
		&loan.Loan{},
		&repayment.Repayment{},
	)
}
