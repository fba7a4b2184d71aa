package mysql

import (
	"context"
	"errors"
	"testing"

	loanDomain "mutuelle-backend/internal/domain/loan"

	"gorm.io/gorm"
)

func TestLoanRepository_CreateAndLookups(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewLoanRepository(gdb)
	ctx := context.Background()

	l := makeLoan("LN-10", 10, "MB-10")
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("auto ID not set")
	}

	byNatural, err := repo.GetByLoanID(ctx, "LN-10")
	if err != nil || byNatural.MemberID != "MB-10" {
		t.Fatalf("GetByLoanID: %+v err=%v", byNatural, err)
	}
	byID, err := repo.GetByID(ctx, l.ID)
	if err != nil || byID.LoanID != "LN-10" {
		t.Fatalf("GetByID: %+v err=%v", byID, err)
	}
	byFK, err := repo.GetByRequestFK(ctx, 10)
	if err != nil || byFK.LoanID != "LN-10" {
		t.Fatalf("GetByRequestFK: %+v err=%v", byFK, err)
	}
	if _, err := repo.GetByRequestFK(ctx, 999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing FK: want ErrRecordNotFound, got %v", err)
	}
}

func TestLoanRepository_RequestFKUnique(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewLoanRepository(gdb)
	ctx := context.Background()

	if err := repo.Create(ctx, makeLoan("LN-20", 20, "MB-20")); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	// A second loan for the same request must be rejected by the schema,
	// whatever the application layer does.
	if err := repo.Create(ctx, makeLoan("LN-21", 20, "MB-20")); err == nil {
		t.Fatalf("expected unique violation on loan_request_id")
	}
}

func TestLoanRepository_Lists(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewLoanRepository(gdb)
	ctx := context.Background()

	a := makeLoan("LN-30", 30, "MB-30")
	b := makeLoan("LN-31", 31, "MB-30")
	b.Status = loanDomain.StatusRepaid
	b.Repaid = true
	c := makeLoan("LN-32", 32, "MB-31")
	for _, l := range []*loanDomain.Loan{a, b, c} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create %s: %v", l.LoanID, err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListAll: len=%d err=%v", len(all), err)
	}
	mine, err := repo.ListByMemberID(ctx, "MB-30")
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListByMemberID: len=%d err=%v", len(mine), err)
	}
	repaid, err := repo.ListByStatus(ctx, loanDomain.StatusRepaid)
	if err != nil || len(repaid) != 1 || repaid[0].LoanID != "LN-31" {
		t.Fatalf("ListByStatus: %+v err=%v", repaid, err)
	}
}
