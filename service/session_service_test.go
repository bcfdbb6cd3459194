package service

import (
	"context"
	"testing"
	"time"

	"rewards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type sessionMocks struct {
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	users    *MockUserRepository
	sessions *MockSessionRepository
}

func newSessionMocks() sessionMocks {
	m := sessionMocks{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		users:    new(MockUserRepository),
		sessions: new(MockSessionRepository),
	}
	m.uow.SetRepositories(m.users, nil, nil, nil, nil, nil, m.sessions)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func TestSessionService_IssueToken_StoresHashOnly(t *testing.T) {
	ctx := context.Background()
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	user := &models.User{ID: 7, Username: "alice"}
	m.users.On("GetByID", ctx, int64(7)).Return(user, nil)

	var stored *models.Session
	m.sessions.On("Create", ctx, mock.MatchedBy(func(s *models.Session) bool {
		stored = s
		return s.UserID == 7
	})).Return(nil)

	token, err := svc.IssueToken(ctx, 7)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, stored.TokenHash)
	assert.Len(t, stored.TokenHash, 64)
	assert.True(t, stored.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
}

func TestSessionService_IssueToken_UnknownUser(t *testing.T) {
	ctx := context.Background()
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	m.users.On("GetByID", ctx, int64(42)).Return(nil, nil)

	_, err := svc.IssueToken(ctx, 42)

	assert.ErrorIs(t, err, ErrNotFound)
	m.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSessionService_VerifyToken_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	user := &models.User{ID: 7, Username: "alice"}
	m.users.On("GetByID", ctx, int64(7)).Return(user, nil)

	var storedHash string
	m.sessions.On("Create", ctx, mock.MatchedBy(func(s *models.Session) bool {
		storedHash = s.TokenHash
		return true
	})).Return(nil)

	token, err := svc.IssueToken(ctx, 7)
	assert.NoError(t, err)

	m.sessions.On("GetByTokenHash", ctx, storedHash).Return(&models.Session{
		TokenHash: storedHash,
		UserID:    7,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)

	resolved, err := svc.VerifyToken(ctx, token)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), resolved.ID)
}

func TestSessionService_VerifyToken_Expired(t *testing.T) {
	ctx := context.Background()
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	m.sessions.On("GetByTokenHash", ctx, mock.Anything).Return(&models.Session{
		TokenHash: "irrelevant",
		UserID:    7,
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)

	_, err := svc.VerifyToken(ctx, "stale-token")

	assert.ErrorIs(t, err, ErrUnauthorized)
	m.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSessionService_VerifyToken_Unknown(t *testing.T) {
	ctx := context.Background()
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	m.sessions.On("GetByTokenHash", ctx, mock.Anything).Return(nil, nil)

	_, err := svc.VerifyToken(ctx, "no-such-token")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionService_VerifyToken_Empty(t *testing.T) {
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	_, err := svc.VerifyToken(context.Background(), "")

	assert.ErrorIs(t, err, ErrUnauthorized)
	m.sessions.AssertNotCalled(t, "GetByTokenHash", mock.Anything, mock.Anything)
}

func TestSessionService_RevokeToken(t *testing.T) {
	ctx := context.Background()
	m := newSessionMocks()
	svc := NewSessionService(m.factory)

	m.sessions.On("Delete", ctx, hashToken("live-token")).Return(nil)

	err := svc.RevokeToken(ctx, "live-token")

	assert.NoError(t, err)
	m.sessions.AssertExpectations(t)
}
