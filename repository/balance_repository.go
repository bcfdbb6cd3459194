package repository

import (
	"context"
	"fmt"

	"rewards/database"
	"rewards/models"
	"rewards/service"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the service.BalanceRepository interface
type BalanceRepository struct {
	q queryable
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{q: db.Pool}
}

// newBalanceRepositoryWithTx creates a new balance repository with a transaction
func newBalanceRepositoryWithTx(tx queryable) *BalanceRepository {
	return &BalanceRepository{q: tx}
}

// Get retrieves a user's balance, returning nil if no balance row exists yet
func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	query := `
		SELECT user_id, available, lifetime_earned, updated_at
		FROM balances
		WHERE user_id = $1
	`

	var balance models.Balance
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.Available,
		&balance.LifetimeEarned,
		&balance.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}

	return &balance, nil
}

// EnsureExists creates a zero balance row for the user if one does not exist.
// Balances are created lazily on first credit rather than at registration.
func (r *BalanceRepository) EnsureExists(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO balances (user_id, available, lifetime_earned)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure balance for user %d: %w", userID, err)
	}
	return nil
}

// ApplyDelta applies a signed amount to a user's available balance and
// returns the updated row. The WHERE guard refuses any debit that would take
// the balance negative, so the check and the write are one atomic statement.
// When earning is true the credit also counts toward lifetime earnings.
func (r *BalanceRepository) ApplyDelta(ctx context.Context, userID int64, amount int64, earning bool) (*models.Balance, error) {
	lifetimeDelta := int64(0)
	if earning && amount > 0 {
		lifetimeDelta = amount
	}

	query := `
		UPDATE balances
		SET available = available + $1,
		    lifetime_earned = lifetime_earned + $2,
		    updated_at = NOW()
		WHERE user_id = $3 AND available + $1 >= 0
		RETURNING user_id, available, lifetime_earned, updated_at
	`

	var balance models.Balance
	err := r.q.QueryRow(ctx, query, amount, lifetimeDelta, userID).Scan(
		&balance.UserID,
		&balance.Available,
		&balance.LifetimeEarned,
		&balance.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		// Either the row is missing or the debit would go negative. Callers
		// run EnsureExists first, so this is an insufficient balance.
		return nil, service.ErrInsufficientBalance
	}
	if err != nil {
		if isCheckViolation(err, "balances_available_non_negative") {
			return nil, service.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to apply delta of %d for user %d: %w", amount, userID, err)
	}

	return &balance, nil
}
