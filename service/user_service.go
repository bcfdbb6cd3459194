package service

import (
	"context"
	"fmt"

	"rewards/events"
	"rewards/models"

	log "github.com/sirupsen/logrus"
)

// signupBonusPoints is credited once at registration.
const signupBonusPoints = 100

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

// Register creates a new user with a signup bonus credit
func (s *userService) Register(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrInvalidParameters
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, username, models.RoleUser)
	if err != nil {
		return nil, err
	}

	externalID := fmt.Sprintf("signup-%d", user.ID)
	if _, err := applyLedgerDelta(ctx, uow, user.ID, signupBonusPoints, models.SourceRegistrationBonus, &externalID, map[string]any{
		"username": username,
	}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:      user.ID,
		Username:    username,
		SignupBonus: signupBonusPoints,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":   user.ID,
		"username": username,
	}).Info("User registered")

	return user, nil
}

// Login resolves a username to its user. Unknown usernames fail with
// ErrUnauthorized so the response does not reveal which accounts exist.
func (s *userService) Login(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrInvalidParameters
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user, nil if not found
func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetUserDetail retrieves a user together with their active flags and the
// number of ledger entries on their account.
func (s *userService) GetUserDetail(ctx context.Context, userID int64) (*UserDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	flags, err := uow.UserFlagRepository().GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	txCount, err := uow.TransactionLogRepository().CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &UserDetail{User: user, Flags: flags, TransactionCount: txCount}, nil
}

// ListUsers returns all users, newest first
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return users, nil
}

// SetFraudStatus applies an admin ban/unban/whitelist decision. All active
// flags deactivate in the same transaction, whatever the new status.
func (s *userService) SetFraudStatus(ctx context.Context, userID int64, status models.FraudStatus, adminID int64) (*models.User, error) {
	switch status {
	case models.FraudStatusClean, models.FraudStatusBanned, models.FraudStatusWhitelisted:
	default:
		return nil, ErrInvalidParameters
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	oldStatus := user.FraudStatus

	if err := uow.UserRepository().UpdateFraudStatus(ctx, userID, status); err != nil {
		return nil, err
	}

	deactivated, err := uow.UserFlagRepository().DeactivateAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.FraudStatusChangedEvent{
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: status,
		AdminID:   adminID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":           userID,
		"oldStatus":        oldStatus,
		"newStatus":        status,
		"adminId":          adminID,
		"flagsDeactivated": deactivated,
	}).Info("Fraud status changed")

	user.FraudStatus = status
	return user, nil
}

// RaiseFlag records an automated fraud flag. Clean users escalate to
// flagged; whitelisted users collect the flag without a status change.
func (s *userService) RaiseFlag(ctx context.Context, userID int64, flagType models.FlagType) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	flag := &models.UserFlag{
		UserID:   userID,
		FlagType: flagType,
	}
	if err := uow.UserFlagRepository().Insert(ctx, flag); err != nil {
		return err
	}

	if user.FraudStatus == models.FraudStatusClean {
		if err := uow.UserRepository().UpdateFraudStatus(ctx, userID, models.FraudStatusFlagged); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":   userID,
		"flagType": flagType,
	}).Warn("Fraud flag raised")

	return nil
}
