package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"rewards/events"
	"rewards/models"
	"rewards/repository/testutil"
	"rewards/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type integrationEnv struct {
	db          *testutil.TestDatabase
	factory     service.UnitOfWorkFactory
	ledger      service.LedgerService
	withdrawals service.WithdrawalService
	users       service.UserService
	postbacks   service.PostbackService
}

const testCPXSecret = "integration-secret"

func setupIntegration(t *testing.T) *integrationEnv {
	db := testutil.SetupTestDatabase(t)
	factory := NewUnitOfWorkFactory(db.DB, events.NewBus())

	return &integrationEnv{
		db:          db,
		factory:     factory,
		ledger:      service.NewLedgerService(factory),
		withdrawals: service.NewWithdrawalService(factory),
		users:       service.NewUserService(factory),
		postbacks: service.NewPostbackService(factory, service.PostbackSecrets{
			CPX:      testCPXSecret,
			Lootably: "lootably-secret",
		}),
	}
}

func signCPX(userID string) string {
	sum := md5.Sum([]byte(userID + "-" + testCPXSecret))
	return hex.EncodeToString(sum[:])
}

func TestIntegration_IdempotentReplay(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "replay-user")

	externalID := "survey-network:tx-100"
	entry, err := env.ledger.ApplyDelta(ctx, user.ID, 250, models.SourceSurveyNetwork, &externalID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(250), entry.BalanceAfter)

	// Replay the same delivery
	_, err = env.ledger.ApplyDelta(ctx, user.ID, 250, models.SourceSurveyNetwork, &externalID, nil)
	assert.ErrorIs(t, err, service.ErrDuplicateTransaction)

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.Available)
	assert.Equal(t, int64(1), testutil.CountTransactions(t, env.db.DB, user.ID))
}

func TestIntegration_BalanceNeverGoesNegative(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "debit-user")
	testutil.SetBalance(t, env.db.DB, user.ID, 100, 100)

	_, err := env.ledger.ApplyDelta(ctx, user.ID, -101, models.SourceAdminAdjustment, nil, nil)
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Available)
	// The failed debit must leave no log entry behind
	assert.Equal(t, int64(0), testutil.CountTransactions(t, env.db.DB, user.ID))
}

func TestIntegration_PostbackPipeline(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "postback-user")
	userID := user.ID

	params := service.CPXParams{
		UserID:      intToStr(userID),
		RewardLocal: "500",
		TransID:     "cpx-1",
		Hash:        signCPX(intToStr(userID)),
		Status:      "1",
	}

	result, err := env.postbacks.ProcessCPX(ctx, params)
	require.NoError(t, err)
	assert.False(t, result.Ignored)

	// Duplicate delivery of the same transaction
	_, err = env.postbacks.ProcessCPX(ctx, params)
	assert.ErrorIs(t, err, service.ErrDuplicateTransaction)

	// Unapproved status: acknowledged, never recorded
	ignored, err := env.postbacks.ProcessCPX(ctx, service.CPXParams{
		UserID:      intToStr(userID),
		RewardLocal: "500",
		TransID:     "cpx-2",
		Hash:        signCPX(intToStr(userID)),
		Status:      "2",
	})
	require.NoError(t, err)
	assert.True(t, ignored.Ignored)

	assert.Equal(t, int64(1), testutil.CountTransactions(t, env.db.DB, userID))

	balance, err := env.ledger.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.Available)
}

func TestIntegration_BannedUserPostbackDropped(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "banned-user")
	testutil.SetFraudStatus(t, env.db.DB, user.ID, models.FraudStatusBanned)

	result, err := env.postbacks.ProcessCPX(ctx, service.CPXParams{
		UserID:      intToStr(user.ID),
		RewardLocal: "500",
		TransID:     "cpx-banned",
		Hash:        signCPX(intToStr(user.ID)),
		Status:      "1",
	})
	require.NoError(t, err)
	assert.True(t, result.Ignored)
	assert.Equal(t, int64(0), testutil.CountTransactions(t, env.db.DB, user.ID))
}

// Earn 5000 points across postbacks, withdraw the platform minimum, and
// check the resulting balance, cash conversion, and log trail.
func TestIntegration_WithdrawalScenario(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "scenario-user")
	admin := testutil.CreateTestAdmin(t, env.db.DB, "scenario-admin")

	for i, amount := range []int64{2000, 1500, 1500} {
		externalID := "survey-network:scenario-" + intToStr(int64(i))
		_, err := env.ledger.ApplyDelta(ctx, user.ID, amount, models.SourceSurveyNetwork, &externalID, nil)
		require.NoError(t, err)
	}

	req, err := env.withdrawals.RequestWithdrawal(ctx, user.ID, 5000, "paypal", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, req.Status)
	assert.Equal(t, int64(500), req.CashCents) // 10 points per cent

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Available)
	assert.Equal(t, int64(5000), balance.LifetimeEarned)

	// A second request while one is pending is refused
	_, err = env.withdrawals.RequestWithdrawal(ctx, user.ID, 5000, "paypal", "user@example.com")
	assert.ErrorIs(t, err, service.ErrPendingRequestExists)

	processed, err := env.withdrawals.ProcessWithdrawal(ctx, req.ID, models.WithdrawalActionApprove, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, processed.Status)
	require.NotNil(t, processed.ProcessedAt)

	// Approval is terminal
	_, err = env.withdrawals.ProcessWithdrawal(ctx, req.ID, models.WithdrawalActionReject, admin.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
}

func TestIntegration_RejectRefundsExactlyOnce(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "reject-user")
	admin := testutil.CreateTestAdmin(t, env.db.DB, "reject-admin")
	testutil.SetBalance(t, env.db.DB, user.ID, 6000, 6000)

	req, err := env.withdrawals.RequestWithdrawal(ctx, user.ID, 5000, "paypal", "user@example.com")
	require.NoError(t, err)

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Available)

	_, err = env.withdrawals.ProcessWithdrawal(ctx, req.ID, models.WithdrawalActionReject, admin.ID)
	require.NoError(t, err)

	balance, err = env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), balance.Available)
	// Refunds do not count as earnings
	assert.Equal(t, int64(6000), balance.LifetimeEarned)

	entries, err := env.ledger.GetTransactions(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var refunds int
	for _, e := range entries {
		if e.Source == models.SourceRefund {
			refunds++
			assert.Equal(t, int64(5000), e.Amount)
		}
	}
	assert.Equal(t, 1, refunds)
}

func TestIntegration_RateLimitAfterProcessedRequest(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "ratelimit-user")
	admin := testutil.CreateTestAdmin(t, env.db.DB, "ratelimit-admin")
	testutil.SetBalance(t, env.db.DB, user.ID, 20000, 20000)

	req, err := env.withdrawals.RequestWithdrawal(ctx, user.ID, 5000, "paypal", "user@example.com")
	require.NoError(t, err)

	_, err = env.withdrawals.ProcessWithdrawal(ctx, req.ID, models.WithdrawalActionApprove, admin.ID)
	require.NoError(t, err)

	// No pending request remains, but the rolling window still applies
	_, err = env.withdrawals.RequestWithdrawal(ctx, user.ID, 5000, "paypal", "user@example.com")
	assert.ErrorIs(t, err, service.ErrRateLimited)
}

func TestIntegration_RegisterCreditsSignupBonusOnce(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, "fresh-user")
	require.NoError(t, err)

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Available)

	_, err = env.users.Register(ctx, "fresh-user")
	assert.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestIntegration_DailyBonusOncePerDay(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "bonus-user")

	entry, err := env.ledger.ClaimDailyBonus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceDailyBonus, entry.Source)
	assert.Equal(t, int64(50), entry.Amount)

	_, err = env.ledger.ClaimDailyBonus(ctx, user.ID)
	assert.ErrorIs(t, err, service.ErrDuplicateTransaction)
}

func TestIntegration_ConcurrentReplaySingleCredit(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "race-user")

	// All workers carry the same external id. Whoever loses the race gets
	// past the existence check before the winner commits, then trips the
	// unique constraint on the log insert and rolls back.
	const workers = 8
	externalID := "survey-network:tx-race"

	start := make(chan struct{})
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.ledger.ApplyDelta(ctx, user.ID, 250, models.SourceSurveyNetwork, &externalID, nil)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var credited, duplicates int
	for err := range results {
		switch {
		case err == nil:
			credited++
		case errors.Is(err, service.ErrDuplicateTransaction):
			duplicates++
		default:
			t.Fatalf("unexpected error from concurrent credit: %v", err)
		}
	}

	assert.Equal(t, 1, credited)
	assert.Equal(t, workers-1, duplicates)

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.Available)
	assert.Equal(t, int64(1), testutil.CountTransactions(t, env.db.DB, user.ID))
}

func TestIntegration_ConcurrentDistinctCreditsAllApply(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "fanin-user")

	const workers = 10
	start := make(chan struct{})
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			externalID := fmt.Sprintf("survey-network:tx-fanin-%d", n)
			_, err := env.ledger.ApplyDelta(ctx, user.ID, 100, models.SourceSurveyNetwork, &externalID, nil)
			results <- err
		}(i)
	}
	close(start)
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}

	balance, err := env.ledger.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*100), balance.Available)
	assert.Equal(t, int64(workers*100), balance.LifetimeEarned)
	assert.Equal(t, int64(workers), testutil.CountTransactions(t, env.db.DB, user.ID))
}

func TestIntegration_PurgeExpiredSessions(t *testing.T) {
	env := setupIntegration(t)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, env.db.DB, "session-user")

	_, err := env.db.DB.Pool.Exec(ctx,
		`INSERT INTO sessions (token_hash, user_id, expires_at) VALUES
		 (REPEAT('a', 64), $1, NOW() - INTERVAL '1 hour'),
		 (REPEAT('b', 64), $1, NOW() + INTERVAL '1 hour')`,
		user.ID)
	require.NoError(t, err)

	deleted, err := PurgeExpiredSessions(ctx, env.db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	err = env.db.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&remaining)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}

func intToStr(v int64) string {
	return strconv.FormatInt(v, 10)
}
