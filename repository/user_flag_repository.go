package repository

import (
	"context"
	"fmt"

	"rewards/database"
	"rewards/models"
)

// UserFlagRepository implements the service.UserFlagRepository interface
type UserFlagRepository struct {
	q queryable
}

// NewUserFlagRepository creates a new user flag repository
func NewUserFlagRepository(db *database.DB) *UserFlagRepository {
	return &UserFlagRepository{q: db.Pool}
}

// newUserFlagRepositoryWithTx creates a new user flag repository with a transaction
func newUserFlagRepositoryWithTx(tx queryable) *UserFlagRepository {
	return &UserFlagRepository{q: tx}
}

// Insert raises a new active flag against a user
func (r *UserFlagRepository) Insert(ctx context.Context, flag *models.UserFlag) error {
	query := `
		INSERT INTO user_flags (user_id, flag_type, active)
		VALUES ($1, $2, TRUE)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, flag.UserID, flag.FlagType).Scan(&flag.ID, &flag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert flag for user %d: %w", flag.UserID, err)
	}

	flag.Active = true
	return nil
}

// DeactivateAll deactivates every active flag for a user and returns how
// many were deactivated. Flags are never deleted.
func (r *UserFlagRepository) DeactivateAll(ctx context.Context, userID int64) (int64, error) {
	query := `UPDATE user_flags SET active = FALSE WHERE user_id = $1 AND active`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate flags for user %d: %w", userID, err)
	}
	return result.RowsAffected(), nil
}

// GetActiveByUser returns the user's active flags, newest first
func (r *UserFlagRepository) GetActiveByUser(ctx context.Context, userID int64) ([]*models.UserFlag, error) {
	query := `
		SELECT id, user_id, flag_type, active, created_at
		FROM user_flags
		WHERE user_id = $1 AND active
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flags for user %d: %w", userID, err)
	}
	defer rows.Close()

	var flags []*models.UserFlag
	for rows.Next() {
		var flag models.UserFlag
		err := rows.Scan(&flag.ID, &flag.UserID, &flag.FlagType, &flag.Active, &flag.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, &flag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flags: %w", err)
	}

	return flags, nil
}
