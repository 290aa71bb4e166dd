package domain

import (
	"sort"
	"strings"
	"time"
)

type PassType string

const (
	PassProgramMembership PassType = "program_membership"
	PassTicket            PassType = "ticket"
	PassWallet            PassType = "pkpass"
)

func (t PassType) Valid() bool {
	switch t {
	case PassProgramMembership, PassTicket, PassWallet:
		return true
	}
	return false
}

type PassSection string

const (
	PassSectionValid   PassSection = "valid"
	PassSectionExpired PassSection = "expired"
	PassSectionFuture  PassSection = "future"
)

type Pass struct {
	ID           string     `json:"id"`
	Type         PassType   `json:"type"`
	Name         string     `json:"name"`
	MemberName   string     `json:"member_name,omitempty"`
	MemberNumber string     `json:"member_number,omitempty"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (p Pass) IsExpired(now time.Time) bool {
	return p.ValidUntil != nil && p.ValidUntil.Before(now)
}

func (p Pass) Section(now time.Time) PassSection {
	if p.IsExpired(now) {
		return PassSectionExpired
	}
	if p.ValidFrom != nil && p.ValidFrom.After(now) {
		return PassSectionFuture
	}
	return PassSectionValid
}

// IsSame reports whether other is the same pass, matched by id or by membership number within one program.
func (p Pass) IsSame(other Pass) bool {
	if p.ID != "" && p.ID == other.ID {
		return true
	}
	if p.MemberNumber == "" || other.MemberNumber == "" {
		return false
	}
	return p.MemberNumber == other.MemberNumber && strings.EqualFold(p.Name, other.Name)
}

// SortPasses puts valid passes before expired ones, then orders by name and id.
func SortPasses(passes []Pass, now time.Time) {
	sort.SliceStable(passes, func(i, j int) bool {
		lhsExpired, rhsExpired := passes[i].IsExpired(now), passes[j].IsExpired(now)
		if lhsExpired != rhsExpired {
			return !lhsExpired
		}
		if passes[i].Name != passes[j].Name {
			return strings.ToLower(passes[i].Name) < strings.ToLower(passes[j].Name)
		}
		return passes[i].ID < passes[j].ID
	})
}
