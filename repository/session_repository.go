package repository

import (
	"context"
	"fmt"
	"time"

	"rewards/database"
	"rewards/models"

	"github.com/jackc/pgx/v5"
)

// SessionRepository implements the service.SessionRepository interface
type SessionRepository struct {
	q queryable
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

// newSessionRepositoryWithTx creates a new session repository with a transaction
func newSessionRepositoryWithTx(tx queryable) *SessionRepository {
	return &SessionRepository{q: tx}
}

// Create stores a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query, session.TokenHash, session.UserID, session.ExpiresAt).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session for user %d: %w", session.UserID, err)
	}
	return nil
}

// GetByTokenHash retrieves a session by token hash, returning nil if not found
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `
		SELECT token_hash, user_id, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1
	`

	var session models.Session
	err := r.q.QueryRow(ctx, query, tokenHash).Scan(
		&session.TokenHash,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM sessions WHERE token_hash = $1`

	if _, err := r.q.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions past their expiry and returns the count
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= $1`

	result, err := r.q.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgeExpiredSessions sweeps expired sessions in one transaction. Called
// periodically by the process entry point.
func PurgeExpiredSessions(ctx context.Context, db *database.DB) (int64, error) {
	var deleted int64
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = newSessionRepositoryWithTx(tx).DeleteExpired(ctx, time.Now())
		return err
	})
	return deleted, err
}
