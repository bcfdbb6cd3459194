package repository

import (
	"context"
	"fmt"
	"time"

	"rewards/database"
	"rewards/models"
	"rewards/service"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRepository implements the service.WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

const withdrawalColumns = `id, user_id, points, cash_cents, method, address, status, requested_at, processed_at`

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Points,
		&req.CashCents,
		&req.Method,
		&req.Address,
		&req.Status,
		&req.RequestedAt,
		&req.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a new pending withdrawal request. The partial unique index
// on (user_id) WHERE status = 'pending' backs the one-outstanding-request
// invariant even under concurrent submissions.
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (user_id, points, cash_cents, method, address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, requested_at
	`

	err := r.q.QueryRow(ctx, query,
		req.UserID,
		req.Points,
		req.CashCents,
		req.Method,
		req.Address,
		models.WithdrawalStatusPending,
	).Scan(&req.ID, &req.RequestedAt)

	if err != nil {
		if isUniqueViolation(err, "idx_withdrawal_requests_one_pending") {
			return service.ErrPendingRequestExists
		}
		return fmt.Errorf("failed to create withdrawal for user %d: %w", req.UserID, err)
	}

	req.Status = models.WithdrawalStatusPending
	return nil
}

// GetByIDForUpdate retrieves a withdrawal request with a row lock, so that
// concurrent admin decisions on the same request serialize. Returns nil if
// not found.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`

	req, err := scanWithdrawal(r.q.QueryRow(ctx, query, requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %d: %w", requestID, err)
	}
	return req, nil
}

// HasPending checks whether the user has an outstanding pending request
func (r *WithdrawalRepository) HasPending(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM withdrawal_requests WHERE user_id = $1 AND status = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, userID, models.WithdrawalStatusPending).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending withdrawal for user %d: %w", userID, err)
	}
	return exists, nil
}

// LastRequestedAt returns the time of the user's most recent request of any
// status, or nil if the user has never requested a withdrawal.
func (r *WithdrawalRepository) LastRequestedAt(ctx context.Context, userID int64) (*time.Time, error) {
	query := `
		SELECT requested_at
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT 1
	`

	var requestedAt time.Time
	err := r.q.QueryRow(ctx, query, userID).Scan(&requestedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last withdrawal time for user %d: %w", userID, err)
	}
	return &requestedAt, nil
}

// MarkProcessed transitions a pending request to a terminal status. The
// status guard in the WHERE clause makes the transition exactly-once.
func (r *WithdrawalRepository) MarkProcessed(ctx context.Context, requestID int64, status models.WithdrawalStatus, processedAt time.Time) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, processed_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.Exec(ctx, query, status, processedAt, requestID, models.WithdrawalStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal %d as %s: %w", requestID, status, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrAlreadyProcessed
	}
	return nil
}

// GetByUser returns the user's withdrawal requests, newest first
func (r *WithdrawalRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// List returns withdrawal requests across all users, optionally filtered by
// status, newest first
func (r *WithdrawalRepository) List(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]*models.WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY requested_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

func collectWithdrawals(rows pgx.Rows) ([]*models.WithdrawalRequest, error) {
	var requests []*models.WithdrawalRequest
	for rows.Next() {
		var req models.WithdrawalRequest
		err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.Points,
			&req.CashCents,
			&req.Method,
			&req.Address,
			&req.Status,
			&req.RequestedAt,
			&req.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", err)
	}

	return requests, nil
}
