package service

import (
	"context"
	"fmt"

	"rewards/events"
	"rewards/models"
)

// applyLedgerDelta is the single entry point for all balance changes. It
// mutates the balance, appends exactly one transaction log entry, and
// publishes a balance change event, all on the caller's unit of work so the
// mutation and the log entry commit or fail together.
//
// With an external id the log insert doubles as the idempotency check: the
// unique constraint rejects a replay even when two deliveries race, and the
// whole transaction unwinds with ErrDuplicateTransaction.
func applyLedgerDelta(ctx context.Context, uow UnitOfWork, userID int64, amount int64, source models.TransactionSource, externalID *string, metadata map[string]any) (*models.TransactionLogEntry, error) {
	if amount == 0 {
		return nil, ErrInvalidParameters
	}

	// Fast path for replays: surface the duplicate before touching the
	// balance. The Record call below still catches the concurrent case.
	if externalID != nil {
		exists, err := uow.TransactionLogRepository().ExistsExternalID(ctx, *externalID)
		if err != nil {
			return nil, fmt.Errorf("failed to check external id: %w", err)
		}
		if exists {
			return nil, ErrDuplicateTransaction
		}
	}

	if err := uow.BalanceRepository().EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	balance, err := uow.BalanceRepository().ApplyDelta(ctx, userID, amount, source.EarningSource())
	if err != nil {
		return nil, err
	}

	entry := &models.TransactionLogEntry{
		UserID:        userID,
		Amount:        amount,
		Source:        source,
		ExternalID:    externalID,
		BalanceBefore: balance.Available - amount,
		BalanceAfter:  balance.Available,
		Metadata:      metadata,
	}

	if err := uow.TransactionLogRepository().Record(ctx, entry); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       userID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		Source:       source,
		ChangeAmount: amount,
	})

	return entry, nil
}
