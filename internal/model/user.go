package model

import "github.com/google/uuid"

// MaxBadgesPerUser is the hard cap on simultaneous badges per user.
const MaxBadgesPerUser = 2

// User is the DB entity persisted in the users table. CustomerAlias references
// a registry alias; the link is validated at write time, not by the schema.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	CustomerAlias string    `db:"customer_alias" json:"customer_alias"`
	Badges        []Badge   `db:"-" json:"badges"`
}

// Badge is one named tag held by a user.
type Badge struct {
	ID     int64     `db:"id" json:"-"`
	Name   string    `db:"name" json:"badge_name"`
	UserID uuid.UUID `db:"user_id" json:"-"`
}
