package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"rewards/models"

	"github.com/google/uuid"
)

const sessionTTL = 7 * 24 * time.Hour

// SessionService issues and verifies opaque bearer tokens backed by the
// sessions table. It is the single session verifier for the whole service;
// earlier platform iterations carried three parallel auth backends, none of
// which agreed with the others.
type SessionService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(uowFactory UnitOfWorkFactory) *SessionService {
	return &SessionService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueToken creates a session for the user and returns the bearer token.
// Only the token's hash is stored.
func (s *SessionService) IssueToken(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrNotFound
	}

	session := &models.Session{
		TokenHash: hashToken(token),
		UserID:    userID,
		ExpiresAt: s.now().Add(sessionTTL),
	}
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return "", err
	}

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return token, nil
}

// VerifyToken resolves a bearer token to its user, failing with
// ErrUnauthorized for unknown or expired tokens.
func (s *SessionService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired(s.now()) {
		return nil, ErrUnauthorized
	}

	user, err := uow.UserRepository().GetByID(ctx, session.UserID)
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

// RevokeToken deletes the session for a bearer token
func (s *SessionService) RevokeToken(ctx context.Context, token string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Delete(ctx, hashToken(token)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
