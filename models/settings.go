package models

import (
	"time"
)

// PlatformSettings is the single runtime-mutable configuration row. Earlier
// iterations of the platform mutated process environment variables from an
// admin endpoint, which neither persisted nor propagated across replicas;
// this row is the durable replacement.
type PlatformSettings struct {
	ExchangeRate        int64     `db:"exchange_rate"` // points per cash cent
	MinWithdrawalPoints int64     `db:"min_withdrawal_points"`
	DailyBonusPoints    int64     `db:"daily_bonus_points"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// CashCents converts a point amount into cash cents at the configured rate.
// The rate is fixed per request: the amount recorded on a withdrawal never
// changes after creation even if the rate is updated later.
func (s *PlatformSettings) CashCents(points int64) int64 {
	if s.ExchangeRate <= 0 {
		return 0
	}
	return points / s.ExchangeRate
}
