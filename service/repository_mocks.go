package service

import (
	"context"
	"time"

	"rewards/events"
	"rewards/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateFraudStatus(ctx context.Context, userID int64, status models.FraudStatus) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockBalanceRepository is a mock implementation of BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceRepository) EnsureExists(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockBalanceRepository) ApplyDelta(ctx context.Context, userID int64, amount int64, earning bool) (*models.Balance, error) {
	args := m.Called(ctx, userID, amount, earning)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

// MockTransactionLogRepository is a mock implementation of TransactionLogRepository
type MockTransactionLogRepository struct {
	mock.Mock
}

func (m *MockTransactionLogRepository) Record(ctx context.Context, entry *models.TransactionLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTransactionLogRepository) ExistsExternalID(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionLogRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.TransactionLogEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TransactionLogEntry), args.Error(1)
}

func (m *MockTransactionLogRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) HasPending(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWithdrawalRepository) LastRequestedAt(ctx context.Context, userID int64) (*time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockWithdrawalRepository) MarkProcessed(ctx context.Context, requestID int64, status models.WithdrawalStatus, processedAt time.Time) error {
	args := m.Called(ctx, requestID, status, processedAt)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) List(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

// MockUserFlagRepository is a mock implementation of UserFlagRepository
type MockUserFlagRepository struct {
	mock.Mock
}

func (m *MockUserFlagRepository) Insert(ctx context.Context, flag *models.UserFlag) error {
	args := m.Called(ctx, flag)
	return args.Error(0)
}

func (m *MockUserFlagRepository) DeactivateAll(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserFlagRepository) GetActiveByUser(ctx context.Context, userID int64) ([]*models.UserFlag, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserFlag), args.Error(1)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformSettings), args.Error(1)
}

func (m *MockSettingsRepository) Update(ctx context.Context, settings *models.PlatformSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher that simply
// collects published events for assertions.
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock

	userRepo       UserRepository
	balanceRepo    BalanceRepository
	txLogRepo      TransactionLogRepository
	withdrawalRepo WithdrawalRepository
	flagRepo       UserFlagRepository
	settingsRepo   SettingsRepository
	sessionRepo    SessionRepository
	publisher      *MockEventPublisher
}

// SetRepositories wires the mock repositories the unit of work hands out.
// Nil entries are left unset; a test touching an unset repository panics,
// which is the point.
func (m *MockUnitOfWork) SetRepositories(users UserRepository, balances BalanceRepository, txLog TransactionLogRepository, withdrawals WithdrawalRepository, flags UserFlagRepository, settings SettingsRepository, sessions SessionRepository) {
	m.userRepo = users
	m.balanceRepo = balances
	m.txLogRepo = txLog
	m.withdrawalRepo = withdrawals
	m.flagRepo = flags
	m.settingsRepo = settings
	m.sessionRepo = sessions
	m.publisher = &MockEventPublisher{}
}

// PublishedEvents returns the events published during the test
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	if m.publisher == nil {
		return nil
	}
	return m.publisher.Events
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	if m.userRepo == nil {
		panic("mock unit of work: user repository not set")
	}
	return m.userRepo
}

func (m *MockUnitOfWork) BalanceRepository() BalanceRepository {
	if m.balanceRepo == nil {
		panic("mock unit of work: balance repository not set")
	}
	return m.balanceRepo
}

func (m *MockUnitOfWork) TransactionLogRepository() TransactionLogRepository {
	if m.txLogRepo == nil {
		panic("mock unit of work: transaction log repository not set")
	}
	return m.txLogRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	if m.withdrawalRepo == nil {
		panic("mock unit of work: withdrawal repository not set")
	}
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) UserFlagRepository() UserFlagRepository {
	if m.flagRepo == nil {
		panic("mock unit of work: user flag repository not set")
	}
	return m.flagRepo
}

func (m *MockUnitOfWork) SettingsRepository() SettingsRepository {
	if m.settingsRepo == nil {
		panic("mock unit of work: settings repository not set")
	}
	return m.settingsRepo
}

func (m *MockUnitOfWork) SessionRepository() SessionRepository {
	if m.sessionRepo == nil {
		panic("mock unit of work: session repository not set")
	}
	return m.sessionRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.publisher == nil {
		m.publisher = &MockEventPublisher{}
	}
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
