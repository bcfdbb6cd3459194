package models

import (
	"time"
)

// Balance represents a user's point balance. Available never goes negative
// and LifetimeEarned only grows; both are enforced by check constraints in
// the database as well as by the ledger service.
type Balance struct {
	UserID         int64     `db:"user_id"`
	Available      int64     `db:"available"`
	LifetimeEarned int64     `db:"lifetime_earned"`
	UpdatedAt      time.Time `db:"updated_at"`
}
