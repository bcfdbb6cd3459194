package models

import (
	"time"
)

// TransactionSource represents what produced a balance change
type TransactionSource string

const (
	SourceSurveyNetwork     TransactionSource = "survey-network"
	SourceOfferNetwork      TransactionSource = "offer-network"
	SourceWithdrawal        TransactionSource = "withdrawal"
	SourceRefund            TransactionSource = "refund"
	SourceAdminAdjustment   TransactionSource = "admin-adjustment"
	SourceDailyBonus        TransactionSource = "daily-bonus"
	SourceRegistrationBonus TransactionSource = "registration-bonus"
)

// EarningSource reports whether credits from this source count toward a
// user's lifetime earnings. Refunds restore balance but are not new earnings.
func (s TransactionSource) EarningSource() bool {
	switch s {
	case SourceSurveyNetwork, SourceOfferNetwork, SourceAdminAdjustment, SourceDailyBonus, SourceRegistrationBonus:
		return true
	}
	return false
}

// TransactionLogEntry represents one immutable, append-only record of a
// balance change. ExternalID, when set, is unique across all entries and is
// the idempotency key for postback deliveries.
type TransactionLogEntry struct {
	ID            int64             `db:"id"`
	UserID        int64             `db:"user_id"`
	Amount        int64             `db:"amount"`
	Source        TransactionSource `db:"source"`
	ExternalID    *string           `db:"external_id"`
	BalanceBefore int64             `db:"balance_before"`
	BalanceAfter  int64             `db:"balance_after"`
	Metadata      map[string]any    `db:"metadata"`
	CreatedAt     time.Time         `db:"created_at"`
}
