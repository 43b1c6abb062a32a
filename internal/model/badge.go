package model

import (
	"time"

	"github.com/google/uuid"
)

// Badge is a permanent achievement record. Type is the stable rule key and
// the sole deduplication key: a user holds at most one badge per type.
type Badge struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// BadgeSet is the set of badge types a user already holds, keyed by type
// for O(1) membership checks during rule evaluation.
type BadgeSet map[string]struct{}

func NewBadgeSet(badges []Badge) BadgeSet {
	set := make(BadgeSet, len(badges))
	for _, b := range badges {
		set[b.Type] = struct{}{}
	}
	return set
}

func (s BadgeSet) Has(badgeType string) bool {
	_, ok := s[badgeType]
	return ok
}
