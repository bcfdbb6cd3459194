package models

import (
	"fmt"
	"time"
)

// WithdrawalStatus represents the state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// WithdrawalAction is an admin decision on a pending request
type WithdrawalAction string

const (
	WithdrawalActionApprove WithdrawalAction = "approve"
	WithdrawalActionReject  WithdrawalAction = "reject"
)

// WithdrawalRequest represents a user's request to convert points into a
// payout. Points are debited from the balance when the request is created;
// a rejection credits them back.
type WithdrawalRequest struct {
	ID          int64            `db:"id"`
	UserID      int64            `db:"user_id"`
	Points      int64            `db:"points"`
	CashCents   int64            `db:"cash_cents"`
	Method      string           `db:"method"`
	Address     string           `db:"address"`
	Status      WithdrawalStatus `db:"status"`
	RequestedAt time.Time        `db:"requested_at"`
	ProcessedAt *time.Time       `db:"processed_at"`
}

// CanBeProcessed checks if the request is still awaiting a decision.
// Approved and rejected are terminal states.
func (w *WithdrawalRequest) CanBeProcessed() bool {
	return w.Status == WithdrawalStatusPending
}

// RefundExternalID returns the idempotency key used when crediting points
// back on rejection, so a replayed rejection can never refund twice.
func (w *WithdrawalRequest) RefundExternalID() string {
	return fmt.Sprintf("refund-wr-%d", w.ID)
}
