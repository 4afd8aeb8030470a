package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ashmortar/htmx-kit/domain"
)

type sessionFixture struct {
	sessions   *MockSessionRepository
	identities *MockIdentityRepository
	svc        *SessionService
	now        time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		sessions:   new(MockSessionRepository),
		identities: new(MockIdentityRepository),
		// Tokens carry real exp claims checked against the wall clock, so
		// the frozen test clock has to sit at real now.
		now: time.Now().Truncate(time.Second),
	}
	f.svc = NewSessionService(f.sessions, f.identities, []byte("test-secret"), time.Hour)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestSessionCreateAndResolve(t *testing.T) {
	f := newSessionFixture(t)
	user := &domain.User{ID: "user-1", Status: domain.UserStatusVerified}
	pii := []domain.Pii{{Type: domain.PiiTypeEmail, Value: "ada@example.com"}}

	f.sessions.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "user-1" && s.ExpiresAt.Equal(f.now.Add(time.Hour))
	})).Return(nil).Once()

	token, session, err := f.svc.Create(context.Background(), "user-1", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, session.ID)

	f.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()
	f.identities.On("GetUserWithPii", mock.Anything, "user-1").Return(user, pii, nil).Once()

	ident, resolved, err := f.svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.User.ID)
	assert.Equal(t, "ada@example.com", ident.Email())
	assert.Zero(t, ident.Credential, "sessions resolve users, not authentication methods")
	assert.Equal(t, session.ID, resolved.ID)
}

func TestSessionResolveRejectsGarbageToken(t *testing.T) {
	f := newSessionFixture(t)

	_, _, err := f.svc.Resolve(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionResolveRejectsWrongSecret(t *testing.T) {
	f := newSessionFixture(t)

	claims := jwt.RegisteredClaims{
		Subject:   "session-1",
		ExpiresAt: jwt.NewNumericDate(f.now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, _, err = f.svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionResolveRejectsUnsignedToken(t *testing.T) {
	f := newSessionFixture(t)

	claims := jwt.RegisteredClaims{
		Subject:   "session-1",
		ExpiresAt: jwt.NewNumericDate(f.now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = f.svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionResolveUnknownSession(t *testing.T) {
	f := newSessionFixture(t)

	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	token, session, err := f.svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	// The session row vanished (purged) while the token is still valid.
	f.sessions.On("GetByID", mock.Anything, session.ID).Return(nil, domain.ErrNotFound).Once()

	_, _, err = f.svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionResolveRevoked(t *testing.T) {
	f := newSessionFixture(t)

	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	token, session, err := f.svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	revokedAt := f.now.Add(time.Minute)
	revoked := *session
	revoked.RevokedAt = &revokedAt
	f.sessions.On("GetByID", mock.Anything, session.ID).Return(&revoked, nil).Once()

	_, _, err = f.svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
	f.identities.AssertNotCalled(t, "GetUserWithPii", mock.Anything, mock.Anything)
}

func TestSessionResolveExpired(t *testing.T) {
	f := newSessionFixture(t)

	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	token, session, err := f.svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	// Clock moves past the session's expiry; the JWT itself is checked
	// against real time, so only advance past the row's expiry.
	f.now = session.ExpiresAt
	f.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()

	_, _, err = f.svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestSessionRevoke(t *testing.T) {
	f := newSessionFixture(t)

	f.sessions.On("Revoke", mock.Anything, "session-1", f.now).Return(nil).Once()
	require.NoError(t, f.svc.Revoke(context.Background(), "session-1"))
	f.sessions.AssertExpectations(t)
}

func TestSessionPurgeExpired(t *testing.T) {
	f := newSessionFixture(t)

	f.sessions.On("DeleteExpired", mock.Anything, f.now).Return(int64(3), nil).Once()
	purged, err := f.svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
}
