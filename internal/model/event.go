package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type BadgeOp string

const (
	OpAdd     BadgeOp = "add"
	OpReplace BadgeOp = "replace"
	OpRemove  BadgeOp = "remove"
)

func (o BadgeOp) String() string { return string(o) }

func (o BadgeOp) Valid() bool {
	return o == OpAdd || o == OpReplace || o == OpRemove
}

// ParseBadgeOp normalizes input; empty => ("", false).
func ParseBadgeOp(s string) (BadgeOp, bool) {
	op := BadgeOp(strings.ToLower(strings.TrimSpace(s)))
	if op.Valid() {
		return op, true
	}
	return "", false
}

// BadgeEvent is the payload written to outbox and published on the
// badges.events topic (via Debezium outbox SMT). It is also the row shape
// of the ClickHouse badge_events table.
type BadgeEvent struct {
	ID            string    `json:"id" db:"id"` // event ULID
	CustomerAlias string    `json:"customer_alias" db:"customer_alias"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Op            BadgeOp   `json:"op" db:"op"`
	Badges        []string  `json:"badges"`               // names added/removed, or new names on replace
	OldBadges     []string  `json:"old_badges,omitempty"` // replace only
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
}
