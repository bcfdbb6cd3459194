package service

import (
	"context"
	"fmt"

	"rewards/models"

	log "github.com/sirupsen/logrus"
)

// settingsService implements the SettingsService interface
type settingsService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettingsService creates a new settings service
func NewSettingsService(uowFactory UnitOfWorkFactory) SettingsService {
	return &settingsService{
		uowFactory: uowFactory,
	}
}

// Get returns the current platform settings
func (s *settingsService) Get(ctx context.Context) (*models.PlatformSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, nil
}

// Update applies partial changes to the settings row. Nil fields keep their
// current value.
func (s *settingsService) Update(ctx context.Context, exchangeRate, minWithdrawalPoints, dailyBonusPoints *int64) (*models.PlatformSettings, error) {
	if exchangeRate != nil && *exchangeRate <= 0 {
		return nil, ErrInvalidParameters
	}
	if minWithdrawalPoints != nil && *minWithdrawalPoints < 0 {
		return nil, ErrInvalidParameters
	}
	if dailyBonusPoints != nil && *dailyBonusPoints < 0 {
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

	if exchangeRate != nil {
		settings.ExchangeRate = *exchangeRate
	}
	if minWithdrawalPoints != nil {
		settings.MinWithdrawalPoints = *minWithdrawalPoints
	}
	if dailyBonusPoints != nil {
		settings.DailyBonusPoints = *dailyBonusPoints
	}

	if err := uow.SettingsRepository().Update(ctx, settings); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"exchangeRate":        settings.ExchangeRate,
		"minWithdrawalPoints": settings.MinWithdrawalPoints,
		"dailyBonusPoints":    settings.DailyBonusPoints,
	}).Info("Platform settings updated")

	return settings, nil
}
