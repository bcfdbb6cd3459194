package service

import (
	"errors"
)

// Business-rule errors. Handlers translate these to HTTP statuses; anything
// not in this taxonomy is an internal error. None of these are retryable by
// the caller. Idempotency, not retries, is how duplicate deliveries stay
// harmless.
var (
	// ErrInsufficientBalance is returned when a debit would take the
	// available balance negative. No mutation occurs.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateTransaction is returned when an external transaction id
	// has already been applied. The original credit stands; the replay is a
	// no-op.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidSignature is returned when a postback's hash or shared
	// secret does not verify. The ledger is never touched.
	ErrInvalidSignature = errors.New("invalid postback signature")

	// ErrBelowMinimum is returned when a withdrawal is under the platform
	// minimum.
	ErrBelowMinimum = errors.New("withdrawal below minimum")

	// ErrPendingRequestExists is returned when the user already has an
	// outstanding withdrawal request.
	ErrPendingRequestExists = errors.New("pending withdrawal request exists")

	// ErrRateLimited is returned when the user has requested a withdrawal
	// within the rolling 24-hour window.
	ErrRateLimited = errors.New("withdrawal rate limit exceeded")

	// ErrAlreadyProcessed is returned when acting on a withdrawal request
	// that has already reached a terminal state.
	ErrAlreadyProcessed = errors.New("withdrawal already processed")

	// ErrWithdrawalNotAllowed is returned when the user's fraud status
	// blocks withdrawal.
	ErrWithdrawalNotAllowed = errors.New("withdrawal not allowed for user")

	// ErrUserBanned is returned when a banned user attempts a ledger
	// mutation that is hard-blocked.
	ErrUserBanned = errors.New("user is banned")

	// ErrInvalidParameters is returned on malformed or out-of-range input.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUnauthorized is returned for a missing, unknown, or expired
	// session token.
	ErrUnauthorized = errors.New("unauthorized")
)
