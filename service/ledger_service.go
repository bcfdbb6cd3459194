package service

import (
	"context"
	"fmt"
	"time"

	"rewards/models"

	log "github.com/sirupsen/logrus"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

// ApplyDelta applies a signed balance change inside its own transaction
func (s *ledgerService) ApplyDelta(ctx context.Context, userID int64, amount int64, source models.TransactionSource, externalID *string, metadata map[string]any) (*models.TransactionLogEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	entry, err := applyLedgerDelta(ctx, uow, userID, amount, source, externalID, metadata)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":  userID,
		"amount":  amount,
		"source":  source,
		"balance": entry.BalanceAfter,
	}).Info("Applied ledger delta")

	return entry, nil
}

// GetBalance returns the user's balance. A user who has never earned has no
// balance row yet; that reads as zero, not as an error.
func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (*models.Balance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = &models.Balance{UserID: userID}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return balance, nil
}

// GetTransactions returns the user's recent transaction log entries
func (s *ledgerService) GetTransactions(ctx context.Context, userID int64, limit int) ([]*models.TransactionLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.TransactionLogRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entries, nil
}

// ClaimDailyBonus credits the configured daily bonus. The external id encodes
// the UTC day, so the ledger's own idempotency makes the claim once-per-day
// without any separate claim table.
func (s *ledgerService) ClaimDailyBonus(ctx context.Context, userID int64) (*models.TransactionLogEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !user.CanEarn() {
		return nil, ErrUserBanned
	}

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, err
	}

	day := time.Now().UTC().Format("2006-01-02")
	externalID := fmt.Sprintf("daily-%d-%s", userID, day)

	entry, err := applyLedgerDelta(ctx, uow, userID, settings.DailyBonusPoints, models.SourceDailyBonus, &externalID, map[string]any{
		"day": day,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, nil
}
