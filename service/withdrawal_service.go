package service

import (
	"context"
	"fmt"
	"time"

	"rewards/events"
	"rewards/models"

	log "github.com/sirupsen/logrus"
)

// withdrawalRateWindow is the rolling window within which a user may submit
// at most one withdrawal request.
const withdrawalRateWindow = 24 * time.Hour

// withdrawalService implements the WithdrawalService interface
type withdrawalService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory) WithdrawalService {
	return &withdrawalService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// RequestWithdrawal validates the request and, in one transaction, debits
// the user's balance and creates the pending withdrawal row.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID int64, points int64, method, address string) (*models.WithdrawalRequest, error) {
	if points <= 0 || method == "" || address == "" {
		return nil, ErrInvalidParameters
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, err
	}
	if points < settings.MinWithdrawalPoints {
		return nil, ErrBelowMinimum
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !user.CanWithdraw() {
		return nil, ErrWithdrawalNotAllowed
	}

	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.Available < points {
		return nil, ErrInsufficientBalance
	}

	hasPending, err := uow.WithdrawalRepository().HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, ErrPendingRequestExists
	}

	lastRequested, err := uow.WithdrawalRepository().LastRequestedAt(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lastRequested != nil && s.now().Sub(*lastRequested) < withdrawalRateWindow {
		return nil, ErrRateLimited
	}

	// The guarded update re-checks sufficiency under the row lock, so a
	// concurrent spend between the read above and this debit still cannot
	// drive the balance negative.
	if _, err := applyLedgerDelta(ctx, uow, userID, -points, models.SourceWithdrawal, nil, map[string]any{
		"method":  method,
		"address": address,
	}); err != nil {
		return nil, err
	}

	req := &models.WithdrawalRequest{
		UserID:    userID,
		Points:    points,
		CashCents: settings.CashCents(points),
		Method:    method,
		Address:   address,
	}
	if err := uow.WithdrawalRepository().Create(ctx, req); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		RequestID: req.ID,
		UserID:    userID,
		Points:    points,
		CashCents: req.CashCents,
		Method:    method,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":    userID,
		"requestId": req.ID,
		"points":    points,
		"cashCents": req.CashCents,
	}).Info("Withdrawal requested")

	return req, nil
}

// ProcessWithdrawal applies an admin decision to a pending request. The row
// lock plus the pending-only status transition make a second decision on the
// same request fail with ErrAlreadyProcessed instead of double-applying.
func (s *withdrawalService) ProcessWithdrawal(ctx context.Context, requestID int64, action models.WithdrawalAction, adminID int64) (*models.WithdrawalRequest, error) {
	if action != models.WithdrawalActionApprove && action != models.WithdrawalActionReject {
		return nil, ErrInvalidParameters
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	req, err := uow.WithdrawalRepository().GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if !req.CanBeProcessed() {
		return nil, ErrAlreadyProcessed
	}

	processedAt := s.now()
	status := models.WithdrawalStatusApproved

	if action == models.WithdrawalActionReject {
		status = models.WithdrawalStatusRejected

		// Compensating credit. The refund's external id is derived from the
		// request id, so even a replayed rejection cannot refund twice.
		refundID := req.RefundExternalID()
		if _, err := applyLedgerDelta(ctx, uow, req.UserID, req.Points, models.SourceRefund, &refundID, map[string]any{
			"withdrawal_request_id": req.ID,
			"admin_id":              adminID,
		}); err != nil {
			return nil, err
		}
	}

	if err := uow.WithdrawalRepository().MarkProcessed(ctx, requestID, status, processedAt); err != nil {
		return nil, err
	}

	req.Status = status
	req.ProcessedAt = &processedAt

	uow.EventBus().Publish(events.WithdrawalProcessedEvent{
		RequestID: req.ID,
		UserID:    req.UserID,
		Points:    req.Points,
		Approved:  status == models.WithdrawalStatusApproved,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestId": requestID,
		"action":    action,
		"adminId":   adminID,
	}).Info("Withdrawal processed")

	return req, nil
}

// GetUserWithdrawals returns the user's withdrawal requests
func (s *withdrawalService) GetUserWithdrawals(ctx context.Context, userID int64, limit int) ([]*models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	requests, err := uow.WithdrawalRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return requests, nil
}

// ListWithdrawals returns withdrawal requests across users
func (s *withdrawalService) ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus, limit int) ([]*models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	requests, err := uow.WithdrawalRepository().List(ctx, status, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return requests, nil
}
