package service

import (
	"context"
	"time"

	"rewards/events"
	"rewards/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil if not found
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// GetByUsername retrieves a user by username, returning nil if not found
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user
	Create(ctx context.Context, username string, role models.Role) (*models.User, error)

	// UpdateFraudStatus updates a user's fraud status
	UpdateFraudStatus(ctx context.Context, userID int64, status models.FraudStatus) error

	// GetAll returns all users
	GetAll(ctx context.Context) ([]*models.User, error)
}

// BalanceRepository defines the interface for balance data access
type BalanceRepository interface {
	// Get retrieves a user's balance, returning nil if no row exists yet
	Get(ctx context.Context, userID int64) (*models.Balance, error)

	// EnsureExists lazily creates a zero balance row for the user
	EnsureExists(ctx context.Context, userID int64) error

	// ApplyDelta atomically applies a signed amount, failing with
	// ErrInsufficientBalance if the result would be negative
	ApplyDelta(ctx context.Context, userID int64, amount int64, earning bool) (*models.Balance, error)
}

// TransactionLogRepository defines the interface for the append-only
// transaction log
type TransactionLogRepository interface {
	// Record appends a log entry, failing with ErrDuplicateTransaction on a
	// repeated external id
	Record(ctx context.Context, entry *models.TransactionLogEntry) error

	// ExistsExternalID checks whether an external id has been applied
	ExistsExternalID(ctx context.Context, externalID string) (bool, error)

	// GetByUser returns the most recent entries for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.TransactionLogEntry, error)

	// CountByUser returns the number of entries for a user
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

// WithdrawalRepository defines the interface for withdrawal request data access
type WithdrawalRepository interface {
	// Create inserts a new pending request, failing with
	// ErrPendingRequestExists if one is already outstanding
	Create(ctx context.Context, req *models.WithdrawalRequest) error

	// GetByIDForUpdate retrieves a request with a row lock, nil if not found
	GetByIDForUpdate(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error)

	// HasPending checks for an outstanding pending request
	HasPending(ctx context.Context, userID int64) (bool, error)

	// LastRequestedAt returns the time of the most recent request, nil if none
	LastRequestedAt(ctx context.Context, userID int64) (*time.Time, error)

	// MarkProcessed transitions a pending request to a terminal status,
	// failing with ErrAlreadyProcessed if it is no longer pending
	MarkProcessed(ctx context.Context, requestID int64, status models.WithdrawalStatus, processedAt time.Time) error

	// GetByUser returns the user's requests, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.WithdrawalRequest, error)

	// List returns requests across users, optionally filtered by status
	List(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]*models.WithdrawalRequest, error)
}

// UserFlagRepository defines the interface for fraud flag data access
type UserFlagRepository interface {
	// Insert raises a new active flag
	Insert(ctx context.Context, flag *models.UserFlag) error

	// DeactivateAll deactivates every active flag for a user
	DeactivateAll(ctx context.Context, userID int64) (int64, error)

	// GetActiveByUser returns the user's active flags
	GetActiveByUser(ctx context.Context, userID int64) ([]*models.UserFlag, error)
}

// SettingsRepository defines the interface for the platform settings row
type SettingsRepository interface {
	// Get reads the settings row
	Get(ctx context.Context) (*models.PlatformSettings, error)

	// Update overwrites the settings row
	Update(ctx context.Context, settings *models.PlatformSettings) error
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create stores a new session
	Create(ctx context.Context, session *models.Session) error

	// GetByTokenHash retrieves a session, nil if not found
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// Delete removes a session
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes sessions past their expiry
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LedgerService defines the interface for balance bookkeeping
type LedgerService interface {
	// ApplyDelta applies a signed balance change with exactly one log entry,
	// both inside one transaction. A supplied externalID enforces
	// at-most-once application.
	ApplyDelta(ctx context.Context, userID int64, amount int64, source models.TransactionSource, externalID *string, metadata map[string]any) (*models.TransactionLogEntry, error)

	// GetBalance returns the user's balance, a zero balance if none exists
	GetBalance(ctx context.Context, userID int64) (*models.Balance, error)

	// GetTransactions returns the user's recent transaction log entries
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*models.TransactionLogEntry, error)

	// ClaimDailyBonus credits the daily bonus at most once per UTC day
	ClaimDailyBonus(ctx context.Context, userID int64) (*models.TransactionLogEntry, error)
}

// WithdrawalService defines the interface for the withdrawal workflow
type WithdrawalService interface {
	// RequestWithdrawal validates and creates a pending request, debiting
	// the balance in the same transaction
	RequestWithdrawal(ctx context.Context, userID int64, points int64, method, address string) (*models.WithdrawalRequest, error)

	// ProcessWithdrawal applies an admin decision exactly once
	ProcessWithdrawal(ctx context.Context, requestID int64, action models.WithdrawalAction, adminID int64) (*models.WithdrawalRequest, error)

	// GetUserWithdrawals returns the user's requests
	GetUserWithdrawals(ctx context.Context, userID int64, limit int) ([]*models.WithdrawalRequest, error)

	// ListWithdrawals returns requests across users, optionally by status
	ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]*models.WithdrawalRequest, error)
}

// UserDetail is the admin view of a user: profile, active flags, and the
// size of their ledger history.
type UserDetail struct {
	User             *models.User
	Flags            []*models.UserFlag
	TransactionCount int64
}

// UserService defines the interface for user management
type UserService interface {
	// Register creates a new user and credits the signup bonus
	Register(ctx context.Context, username string) (*models.User, error)

	// Login resolves a username to its user for session issuance
	Login(ctx context.Context, username string) (*models.User, error)

	// GetUser retrieves a user, nil if not found
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// GetUserDetail retrieves the admin view of a user
	GetUserDetail(ctx context.Context, userID int64) (*UserDetail, error)

	// ListUsers returns all users, newest first
	ListUsers(ctx context.Context) ([]*models.User, error)

	// SetFraudStatus applies an admin ban/unban/whitelist decision,
	// deactivating all active flags
	SetFraudStatus(ctx context.Context, userID int64, status models.FraudStatus, adminID int64) (*models.User, error)

	// RaiseFlag records an automated fraud flag and escalates clean users
	// to flagged
	RaiseFlag(ctx context.Context, userID int64, flagType models.FlagType) error
}

// SettingsService defines the interface for runtime platform settings
type SettingsService interface {
	// Get returns the current settings
	Get(ctx context.Context) (*models.PlatformSettings, error)

	// Update applies partial changes to the settings row
	Update(ctx context.Context, exchangeRate, minWithdrawalPoints, dailyBonusPoints *int64) (*models.PlatformSettings, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceRepository() BalanceRepository
	TransactionLogRepository() TransactionLogRepository
	WithdrawalRepository() WithdrawalRepository
	UserFlagRepository() UserFlagRepository
	SettingsRepository() SettingsRepository
	SessionRepository() SessionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
