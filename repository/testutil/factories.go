package testutil

import (
	"context"
	"testing"

	"rewards/database"
	"rewards/models"

	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user row directly and returns it
func CreateTestUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	user := &models.User{}
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO users (username, role, fraud_status)
		 VALUES ($1, 'user', 'clean')
		 RETURNING id, username, role, fraud_status, created_at, updated_at`,
		username,
	).Scan(&user.ID, &user.Username, &user.Role, &user.FraudStatus, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)
	return user
}

// CreateTestAdmin inserts an admin user row directly and returns it
func CreateTestAdmin(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	user := &models.User{}
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO users (username, role, fraud_status)
		 VALUES ($1, 'admin', 'clean')
		 RETURNING id, username, role, fraud_status, created_at, updated_at`,
		username,
	).Scan(&user.ID, &user.Username, &user.Role, &user.FraudStatus, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)
	return user
}

// SetBalance forces a user's balance row to exact values
func SetBalance(t *testing.T, db *database.DB, userID, available, lifetimeEarned int64) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO balances (user_id, available, lifetime_earned)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET available = EXCLUDED.available, lifetime_earned = EXCLUDED.lifetime_earned`,
		userID, available, lifetimeEarned,
	)
	require.NoError(t, err)
}

// SetFraudStatus forces a user's fraud status directly
func SetFraudStatus(t *testing.T, db *database.DB, userID int64, status models.FraudStatus) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(),
		`UPDATE users SET fraud_status = $2 WHERE id = $1`, userID, status)
	require.NoError(t, err)
}

// CountTransactions returns the number of log entries for a user
func CountTransactions(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	var count int64
	err := db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM transaction_log WHERE user_id = $1`, userID).Scan(&count)
	require.NoError(t, err)
	return count
}
