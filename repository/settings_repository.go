package repository

import (
	"context"
	"fmt"

	"rewards/database"
	"rewards/models"
)

// SettingsRepository implements the service.SettingsRepository interface.
// Platform settings live in a single database row rather than in mutable
// process environment, so updates persist and are visible to every replica.
type SettingsRepository struct {
	q queryable
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

// newSettingsRepositoryWithTx creates a new settings repository with a transaction
func newSettingsRepositoryWithTx(tx queryable) *SettingsRepository {
	return &SettingsRepository{q: tx}
}

// Get reads the settings row. The row is seeded by migration, so it always
// exists.
func (r *SettingsRepository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	query := `
		SELECT exchange_rate, min_withdrawal_points, daily_bonus_points, updated_at
		FROM platform_settings
		WHERE id = 1
	`

	var settings models.PlatformSettings
	err := r.q.QueryRow(ctx, query).Scan(
		&settings.ExchangeRate,
		&settings.MinWithdrawalPoints,
		&settings.DailyBonusPoints,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform settings: %w", err)
	}

	return &settings, nil
}

// Update overwrites the settings row
func (r *SettingsRepository) Update(ctx context.Context, settings *models.PlatformSettings) error {
	query := `
		UPDATE platform_settings
		SET exchange_rate = $1, min_withdrawal_points = $2, daily_bonus_points = $3, updated_at = NOW()
		WHERE id = 1
	`

	if _, err := r.q.Exec(ctx, query,
		settings.ExchangeRate,
		settings.MinWithdrawalPoints,
		settings.DailyBonusPoints,
	); err != nil {
		return fmt.Errorf("failed to update platform settings: %w", err)
	}
	return nil
}
