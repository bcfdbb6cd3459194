package events

import (
	"rewards/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeUserCreated         EventType = "user_created"
	EventTypePostbackCredited    EventType = "postback_credited"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
	EventTypeWithdrawalProcessed EventType = "withdrawal_processed"
	EventTypeFraudStatusChanged  EventType = "fraud_status_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID       int64
	OldBalance   int64
	NewBalance   int64
	Source       models.TransactionSource
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user registration
type UserCreatedEvent struct {
	UserID      int64
	Username    string
	SignupBonus int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// PostbackCreditedEvent represents a reward credit accepted from an
// offer/survey network
type PostbackCreditedEvent struct {
	UserID     int64
	Network    models.TransactionSource
	Amount     int64
	ExternalID string
}

func (e PostbackCreditedEvent) Type() EventType {
	return EventTypePostbackCredited
}

// WithdrawalRequestedEvent represents a new pending withdrawal
type WithdrawalRequestedEvent struct {
	RequestID int64
	UserID    int64
	Points    int64
	CashCents int64
	Method    string
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// WithdrawalProcessedEvent represents an admin decision on a withdrawal
type WithdrawalProcessedEvent struct {
	RequestID int64
	UserID    int64
	Points    int64
	Approved  bool
}

func (e WithdrawalProcessedEvent) Type() EventType {
	return EventTypeWithdrawalProcessed
}

// FraudStatusChangedEvent represents an admin action on a user's standing
type FraudStatusChangedEvent struct {
	UserID    int64
	OldStatus models.FraudStatus
	NewStatus models.FraudStatus
	AdminID   int64
}

func (e FraudStatusChangedEvent) Type() EventType {
	return EventTypeFraudStatusChanged
}
