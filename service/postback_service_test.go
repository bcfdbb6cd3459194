package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"testing"

	"rewards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testSecrets = PostbackSecrets{
	CPX:      "cpx-secret",
	Lootably: "lootably-secret",
}

func cpxHash(userID string) string {
	sum := md5.Sum([]byte(userID + "-" + testSecrets.CPX))
	return hex.EncodeToString(sum[:])
}

func newPostbackMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockBalanceRepository, *MockTransactionLogRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceRepo := new(MockBalanceRepository)
	mockTxLogRepo := new(MockTransactionLogRepository)

	mockUoW.SetRepositories(mockUserRepo, mockBalanceRepo, mockTxLogRepo, nil, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	return mockUoW, mockFactory, mockUserRepo, mockBalanceRepo, mockTxLogRepo
}

func TestPostbackService_ProcessCPX_Success(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockBalanceRepo, mockTxLogRepo := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	user := &models.User{ID: 42, FraudStatus: models.FraudStatusClean}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(user, nil)
	mockTxLogRepo.On("ExistsExternalID", ctx, "survey-network:tx-9").Return(false, nil)
	mockBalanceRepo.On("EnsureExists", ctx, int64(42)).Return(nil)
	mockBalanceRepo.On("ApplyDelta", ctx, int64(42), int64(120), true).
		Return(&models.Balance{UserID: 42, Available: 120, LifetimeEarned: 120}, nil)
	mockTxLogRepo.On("Record", ctx, mock.MatchedBy(func(e *models.TransactionLogEntry) bool {
		return e.Amount == 120 && e.Source == models.SourceSurveyNetwork && *e.ExternalID == "survey-network:tx-9"
	})).Return(nil)

	result, err := svc.ProcessCPX(ctx, CPXParams{
		UserID:      "42",
		RewardLocal: "120",
		TransID:     "tx-9",
		Hash:        cpxHash("42"),
		Status:      "1",
	})

	assert.NoError(t, err)
	assert.False(t, result.Ignored)
	assert.Equal(t, int64(120), result.Entry.Amount)
	mockTxLogRepo.AssertExpectations(t)
}

func TestPostbackService_ProcessCPX_InvalidHash(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, _, _ := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	result, err := svc.ProcessCPX(ctx, CPXParams{
		UserID:      "42",
		RewardLocal: "120",
		TransID:     "tx-9",
		Hash:        "deadbeefdeadbeefdeadbeefdeadbeef",
		Status:      "1",
	})

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, result)
	// The ledger must never be touched on an authentication failure
	mockFactory.AssertNotCalled(t, "Create")
}

func TestPostbackService_ProcessCPX_UnapprovedStatusIgnored(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, _, _ := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	result, err := svc.ProcessCPX(ctx, CPXParams{
		UserID:      "42",
		RewardLocal: "120",
		TransID:     "tx-9",
		Hash:        cpxHash("42"),
		Status:      "2",
	})

	assert.NoError(t, err)
	assert.True(t, result.Ignored)
	assert.Nil(t, result.Entry)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestPostbackService_ProcessCPX_InvalidReward(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, _, _ := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	for _, reward := range []string{"", "abc", "-5", "0"} {
		_, err := svc.ProcessCPX(ctx, CPXParams{
			UserID:      "42",
			RewardLocal: reward,
			TransID:     "tx-9",
			Hash:        cpxHash("42"),
			Status:      "1",
		})
		assert.ErrorIs(t, err, ErrInvalidParameters, "reward %q", reward)
	}
	mockFactory.AssertNotCalled(t, "Create")
}

func TestPostbackService_ProcessCPX_DuplicateTransID(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockBalanceRepo, mockTxLogRepo := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	user := &models.User{ID: 42, FraudStatus: models.FraudStatusClean}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(user, nil)
	mockTxLogRepo.On("ExistsExternalID", ctx, "survey-network:tx-9").Return(true, nil)

	result, err := svc.ProcessCPX(ctx, CPXParams{
		UserID:      "42",
		RewardLocal: "120",
		TransID:     "tx-9",
		Hash:        cpxHash("42"),
		Status:      "1",
	})

	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Nil(t, result)
	mockBalanceRepo.AssertNotCalled(t, "ApplyDelta")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPostbackService_ProcessCPX_BannedUserIgnored(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockBalanceRepo, _ := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	banned := &models.User{ID: 42, FraudStatus: models.FraudStatusBanned}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(banned, nil)

	result, err := svc.ProcessCPX(ctx, CPXParams{
		UserID:      "42",
		RewardLocal: "120",
		TransID:     "tx-9",
		Hash:        cpxHash("42"),
		Status:      "1",
	})

	assert.NoError(t, err)
	assert.True(t, result.Ignored)
	mockBalanceRepo.AssertNotCalled(t, "ApplyDelta")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPostbackService_ProcessLootably_Success(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockBalanceRepo, mockTxLogRepo := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	user := &models.User{ID: 7, FraudStatus: models.FraudStatusClean}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(user, nil)
	mockTxLogRepo.On("ExistsExternalID", ctx, "offer-network:lb-1").Return(false, nil)
	mockBalanceRepo.On("EnsureExists", ctx, int64(7)).Return(nil)
	mockBalanceRepo.On("ApplyDelta", ctx, int64(7), int64(75), true).
		Return(&models.Balance{UserID: 7, Available: 75, LifetimeEarned: 75}, nil)
	mockTxLogRepo.On("Record", ctx, mock.Anything).Return(nil)

	result, err := svc.ProcessLootably(ctx, LootablyParams{
		UserID:  "7",
		Amount:  "75",
		TransID: "lb-1",
		Secret:  testSecrets.Lootably,
	})

	assert.NoError(t, err)
	assert.False(t, result.Ignored)
	assert.Equal(t, models.SourceOfferNetwork, result.Entry.Source)
}

func TestPostbackService_ProcessLootably_WrongSecret(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, _, _ := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	result, err := svc.ProcessLootably(ctx, LootablyParams{
		UserID:  "7",
		Amount:  "75",
		TransID: "lb-1",
		Secret:  "guess",
	})

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, result)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestPostbackService_UnknownUserRejected(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, _, _ := newPostbackMocks()

	svc := NewPostbackService(mockFactory, testSecrets)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByID", ctx, int64(999)).Return(nil, nil)

	_, err := svc.ProcessLootably(ctx, LootablyParams{
		UserID:  "999",
		Amount:  "75",
		TransID: "lb-2",
		Secret:  testSecrets.Lootably,
	})

	assert.ErrorIs(t, err, ErrInvalidParameters)
}
