package service

import (
	"context"
	"testing"

	"rewards/events"
	"rewards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type userMocks struct {
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	users    *MockUserRepository
	balances *MockBalanceRepository
	txLog    *MockTransactionLogRepository
	flags    *MockUserFlagRepository
}

func newUserMocks() userMocks {
	m := userMocks{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		users:    new(MockUserRepository),
		balances: new(MockBalanceRepository),
		txLog:    new(MockTransactionLogRepository),
		flags:    new(MockUserFlagRepository),
	}
	m.uow.SetRepositories(m.users, m.balances, m.txLog, nil, m.flags, nil, nil)
	m.factory.On("Create").Return(m.uow)
	return m
}

func TestUserService_Register_Success(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	created := &models.User{ID: 5, Username: "alice", Role: models.RoleUser, FraudStatus: models.FraudStatusClean}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("Create", ctx, "alice", models.RoleUser).Return(created, nil)
	m.txLog.On("ExistsExternalID", ctx, "signup-5").Return(false, nil)
	m.balances.On("EnsureExists", ctx, int64(5)).Return(nil)
	m.balances.On("ApplyDelta", ctx, int64(5), int64(100), true).
		Return(&models.Balance{UserID: 5, Available: 100, LifetimeEarned: 100}, nil)
	m.txLog.On("Record", ctx, mock.MatchedBy(func(e *models.TransactionLogEntry) bool {
		return e.Source == models.SourceRegistrationBonus && e.Amount == 100 && *e.ExternalID == "signup-5"
	})).Return(nil)

	user, err := svc.Register(ctx, "alice")

	assert.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)

	var sawCreated bool
	for _, ev := range m.uow.PublishedEvents() {
		if e, ok := ev.(events.UserCreatedEvent); ok {
			sawCreated = true
			assert.Equal(t, int64(100), e.SignupBonus)
		}
	}
	assert.True(t, sawCreated, "expected a UserCreatedEvent")
	m.txLog.AssertExpectations(t)
}

func TestUserService_Register_EmptyUsername(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	_, err := svc.Register(ctx, "")

	assert.ErrorIs(t, err, ErrInvalidParameters)
	m.factory.AssertNotCalled(t, "Create")
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("Create", ctx, "alice", models.RoleUser).Return(nil, ErrUsernameTaken)

	_, err := svc.Register(ctx, "alice")

	assert.ErrorIs(t, err, ErrUsernameTaken)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestUserService_SetFraudStatus_BanDeactivatesFlags(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	user := &models.User{ID: 9, Username: "bob", FraudStatus: models.FraudStatusFlagged}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	m.users.On("UpdateFraudStatus", ctx, int64(9), models.FraudStatusBanned).Return(nil)
	m.flags.On("DeactivateAll", ctx, int64(9)).Return(int64(3), nil)

	updated, err := svc.SetFraudStatus(ctx, 9, models.FraudStatusBanned, 1)

	assert.NoError(t, err)
	assert.Equal(t, models.FraudStatusBanned, updated.FraudStatus)
	m.flags.AssertExpectations(t)

	var sawChange bool
	for _, ev := range m.uow.PublishedEvents() {
		if e, ok := ev.(events.FraudStatusChangedEvent); ok {
			sawChange = true
			assert.Equal(t, models.FraudStatusFlagged, e.OldStatus)
			assert.Equal(t, models.FraudStatusBanned, e.NewStatus)
		}
	}
	assert.True(t, sawChange, "expected a FraudStatusChangedEvent")
}

func TestUserService_SetFraudStatus_InvalidStatus(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	_, err := svc.SetFraudStatus(ctx, 9, models.FraudStatusFlagged, 1)

	assert.ErrorIs(t, err, ErrInvalidParameters)
	m.factory.AssertNotCalled(t, "Create")
}

func TestUserService_SetFraudStatus_UserNotFound(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByID", ctx, int64(404)).Return(nil, nil)

	_, err := svc.SetFraudStatus(ctx, 404, models.FraudStatusBanned, 1)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_RaiseFlag_EscalatesCleanUser(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	user := &models.User{ID: 9, FraudStatus: models.FraudStatusClean}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	m.flags.On("Insert", ctx, mock.MatchedBy(func(f *models.UserFlag) bool {
		return f.UserID == 9 && f.FlagType == models.FlagTypeVelocity
	})).Return(nil)
	m.users.On("UpdateFraudStatus", ctx, int64(9), models.FraudStatusFlagged).Return(nil)

	err := svc.RaiseFlag(ctx, 9, models.FlagTypeVelocity)

	assert.NoError(t, err)
	m.users.AssertExpectations(t)
}

func TestUserService_RaiseFlag_WhitelistedUserKeepsStatus(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	user := &models.User{ID: 9, FraudStatus: models.FraudStatusWhitelisted}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	m.flags.On("Insert", ctx, mock.Anything).Return(nil)

	err := svc.RaiseFlag(ctx, 9, models.FlagTypeDuplicateIP)

	assert.NoError(t, err)
	m.users.AssertNotCalled(t, "UpdateFraudStatus")
}

func TestUserService_GetUserDetail_NotFound(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByID", ctx, int64(404)).Return(nil, nil)

	_, err := svc.GetUserDetail(ctx, 404)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_GetUserDetail_IncludesTransactionCount(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	user := &models.User{ID: 5, Username: "alice", FraudStatus: models.FraudStatusFlagged}
	flags := []*models.UserFlag{{ID: 1, UserID: 5, FlagType: models.FlagTypeVelocity, Active: true}}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByID", ctx, int64(5)).Return(user, nil)
	m.flags.On("GetActiveByUser", ctx, int64(5)).Return(flags, nil)
	m.txLog.On("CountByUser", ctx, int64(5)).Return(int64(12), nil)

	detail, err := svc.GetUserDetail(ctx, 5)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), detail.User.ID)
	assert.Len(t, detail.Flags, 1)
	assert.Equal(t, int64(12), detail.TransactionCount)
}

func TestUserService_Login_Success(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	user := &models.User{ID: 5, Username: "alice", FraudStatus: models.FraudStatusClean}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByUsername", ctx, "alice").Return(user, nil)

	got, err := svc.Login(ctx, "alice")

	assert.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
}

func TestUserService_Login_UnknownUsername(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByUsername", ctx, "nobody").Return(nil, nil)

	_, err := svc.Login(ctx, "nobody")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_ListUsers(t *testing.T) {
	ctx := context.Background()
	m := newUserMocks()
	svc := NewUserService(m.factory)

	all := []*models.User{{ID: 2, Username: "bob"}, {ID: 1, Username: "alice"}}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetAll", ctx).Return(all, nil)

	users, err := svc.ListUsers(ctx)

	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
}
