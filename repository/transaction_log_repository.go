package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"rewards/database"
	"rewards/models"
	"rewards/service"
)

// TransactionLogRepository implements the service.TransactionLogRepository interface
type TransactionLogRepository struct {
	q queryable
}

// NewTransactionLogRepository creates a new transaction log repository
func NewTransactionLogRepository(db *database.DB) *TransactionLogRepository {
	return &TransactionLogRepository{q: db.Pool}
}

// newTransactionLogRepositoryWithTx creates a new transaction log repository with a transaction
func newTransactionLogRepositoryWithTx(tx queryable) *TransactionLogRepository {
	return &TransactionLogRepository{q: tx}
}

// Record appends a new transaction log entry. A duplicate external id maps
// to ErrDuplicateTransaction; the unique constraint is what closes the race
// between two concurrent deliveries of the same postback.
func (r *TransactionLogRepository) Record(ctx context.Context, entry *models.TransactionLogEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO transaction_log
		(user_id, amount, source, external_id, balance_before, balance_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.Amount,
		entry.Source,
		entry.ExternalID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "transaction_log_external_id_unique") {
			return service.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to record transaction for user %d: %w", entry.UserID, err)
	}

	return nil
}

// ExistsExternalID checks whether an entry with the given external id has
// already been committed.
func (r *TransactionLogRepository) ExistsExternalID(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transaction_log WHERE external_id = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check external id %q: %w", externalID, err)
	}
	return exists, nil
}

// GetByUser returns the most recent transaction log entries for a user
func (r *TransactionLogRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.TransactionLogEntry, error) {
	query := `
		SELECT id, user_id, amount, source, external_id, balance_before, balance_after, metadata, created_at
		FROM transaction_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.TransactionLogEntry
	for rows.Next() {
		var entry models.TransactionLogEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Amount,
			&entry.Source,
			&entry.ExternalID,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return entries, nil
}

// CountByUser returns the number of log entries for a user
func (r *TransactionLogRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM transaction_log WHERE user_id = $1`

	var count int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions for user %d: %w", userID, err)
	}
	return count, nil
}
