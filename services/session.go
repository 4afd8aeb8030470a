package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ashmortar/htmx-kit/domain"
)

// DefaultSessionTTL bounds how long a login survives without re-auth.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionService creates server-side sessions and signs/validates the JWTs
// that reference them. The JWT's sub claim is the session id; the session
// row is what actually grants access, so revocation works immediately.
type SessionService struct {
	sessions   domain.SessionRepository
	identities domain.IdentityRepository
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewSessionService(sessions domain.SessionRepository, identities domain.IdentityRepository, secret []byte, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions:   sessions,
		identities: identities,
		secret:     secret,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Create opens a session for the user and returns the signed token to put
// in the cookie.
func (s *SessionService) Create(ctx context.Context, userID, userAgent, ip string) (string, *domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, err
	}

	claims := jwt.RegisteredClaims{
		Subject:   session.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing session token: %w", err)
	}
	return token, session, nil
}

// Resolve validates a token and loads the session's user plus all current
// PII rows. The returned identity carries no credential; sessions resolve
// users, not authentication methods.
func (s *SessionService) Resolve(ctx context.Context, tokenString string) (*domain.Identity, *domain.Session, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, nil, domain.ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrInvalidToken
		}
		return nil, nil, err
	}
	now := s.now()
	if session.RevokedAt != nil {
		return nil, nil, domain.ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		return nil, nil, domain.ErrSessionExpired
	}

	user, pii, err := s.identities.GetUserWithPii(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &domain.Identity{User: *user, PII: pii}, session, nil
}

// Revoke ends a session immediately.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID, s.now())
}

// PurgeExpired removes sessions past their expiry; meant for a periodic
// background sweep.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
