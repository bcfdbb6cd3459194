package models

import (
	"time"
)

// FlagType categorizes automated fraud flags
type FlagType string

const (
	FlagTypeVelocity      FlagType = "velocity"
	FlagTypeDuplicateIP   FlagType = "duplicate_ip"
	FlagTypeChargeback    FlagType = "chargeback"
	FlagTypeManualReview  FlagType = "manual_review"
)

// UserFlag represents a fraud flag raised against a user. Flags are
// deactivated rather than deleted when an admin resolves the user's status.
type UserFlag struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	FlagType  FlagType  `db:"flag_type"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}
