package membermock

import (
	"context"

	"mutuelle-backend/internal/domain/member"
)

var _ member.Directory = (*Directory)(nil)

// Directory is a function-backed mock that satisfies member.Directory.
// Fill in LookupFn, or seed Members keyed by member id for the common case.
type Directory struct {
	LookupFn func(ctx context.Context, memberID string) (*member.Member, error)
	Members  map[string]*member.Member
}

// Seed returns a directory resolving each given member by MemberID.
func Seed(ms ...*member.Member) *Directory {
	d := &Directory{Members: make(map[string]*member.Member, len(ms))}
	for _, m := range ms {
		d.Members[m.MemberID] = m
	}
	return d
}

func (d *Directory) Lookup(ctx context.Context, memberID string) (*member.Member, error) {
	if d.LookupFn != nil {
		return d.LookupFn(ctx, memberID)
	}
	if m, ok := d.Members[memberID]; ok {
		return m, nil
	}
	return nil, member.ErrNotFound
}
