package mysql

import (
	"context"
	"errors"

	"mutuelle-backend/internal/domain/member"

	"gorm.io/gorm"
)

// memberRow maps the directory table owned by the membership subsystem.
// The loan engine only reads it.
type memberRow struct {
	ID                 uint64 `gorm:"primaryKey;column:id"`
	MemberID           string `gorm:"size:32;column:member_id"`
	Name               string `gorm:"column:name"`
	Email              string `gorm:"column:email"`
	Role               string `gorm:"column:role"`
	Active             bool   `gorm:"column:active"`
	RegularContributor bool   `gorm:"column:regular_contributor"`
	HasPriorDebt       bool   `gorm:"column:has_prior_debt"`
}

func (memberRow) TableName() string { return "members" }

type MemberDirectory struct{ db *gorm.DB }

func NewMemberDirectory(db *gorm.DB) *MemberDirectory { return &MemberDirectory{db: db} }

func (d *MemberDirectory) Lookup(ctx context.Context, memberID string) (*member.Member, error) {
	var row memberRow
	res := d.db.WithContext(ctx).Where("member_id = ?", memberID).First(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, member.ErrNotFound
		}
		return nil, res.Error
	}
	return &member.Member{
		MemberID:           row.MemberID,
		Name:               row.Name,
		Email:              row.Email,
		Role:               member.Role(row.Role),
		Active:             row.Active,
		RegularContributor: row.RegularContributor,
		HasPriorDebt:       row.HasPriorDebt,
	}, nil
}
