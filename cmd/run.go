package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rewards/api"
	"rewards/config"
	"rewards/database"
	"rewards/events"
	"rewards/repository"
	"rewards/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting rewards service...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Initialize event bus and its cross-cutting subscribers
	eventBus := events.NewBus()
	registerEventSubscriptions(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory)
	withdrawalService := service.NewWithdrawalService(uowFactory)
	userService := service.NewUserService(uowFactory)
	settingsService := service.NewSettingsService(uowFactory)
	sessionService := service.NewSessionService(uowFactory)
	postbackService := service.NewPostbackService(uowFactory, service.PostbackSecrets{
		CPX:      cfg.CPXSecret,
		Lootably: cfg.LootablySecret,
	})

	// Assemble HTTP server
	handler := api.NewHandler(ledgerService, withdrawalService, userService, settingsService, postbackService, sessionService)
	router := api.NewRouter(handler, sessionService)

	// Sweep expired sessions in the background
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := repository.PurgeExpiredSessions(ctx, db)
				if err != nil {
					log.WithError(err).Warn("Session sweep failed")
				} else if deleted > 0 {
					log.WithField("deleted", deleted).Info("Purged expired sessions")
				}
			}
		}
	}()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":        cfg.ListenAddr,
			"environment": cfg.Environment,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	log.Info("Shutdown completed")
	return nil
}
