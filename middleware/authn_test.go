package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmortar/htmx-kit/domain"
	"github.com/ashmortar/htmx-kit/services"
)

type stubSessionRepo struct {
	sessions map[string]*domain.Session
}

func (s *stubSessionRepo) Create(_ context.Context, session *domain.Session) error {
	session.ID = "session-1"
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *stubSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubSessionRepo) Revoke(_ context.Context, id string, at time.Time) error {
	if sess, ok := s.sessions[id]; ok {
		sess.RevokedAt = &at
		return nil
	}
	return domain.ErrNotFound
}

func (s *stubSessionRepo) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type stubIdentityRepo struct{}

func (stubIdentityRepo) FindUserByCredential(context.Context, domain.CredentialType, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (stubIdentityRepo) FindUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (stubIdentityRepo) GetCredential(context.Context, domain.CredentialType, string) (*domain.Credential, error) {
	return nil, domain.ErrNotFound
}
func (stubIdentityRepo) GetIdentity(context.Context, string, domain.CredentialType) (*domain.Identity, error) {
	return nil, domain.ErrNotFound
}
func (stubIdentityRepo) GetUserWithPii(_ context.Context, userID string) (*domain.User, []domain.Pii, error) {
	return &domain.User{ID: userID, Status: domain.UserStatusVerified},
		[]domain.Pii{{UserID: userID, Type: domain.PiiTypeEmail, Value: "ada@example.com"}}, nil
}
func (stubIdentityRepo) CreateIdentity(context.Context, *domain.User, []domain.PiiAttr, *domain.Credential) (*domain.Identity, error) {
	return nil, domain.ErrNotFound
}
func (stubIdentityRepo) UpsertIdentity(context.Context, string, []domain.PiiAttr, *domain.Credential) (*domain.Identity, error) {
	return nil, domain.ErrNotFound
}

func newAuthFixture(t *testing.T) (*echo.Echo, *services.SessionService) {
	t.Helper()
	repo := &stubSessionRepo{sessions: make(map[string]*domain.Session)}
	svc := services.NewSessionService(repo, stubIdentityRepo{}, []byte("test-secret"), time.Hour)

	e := echo.New()
	e.Use(SessionAuth(svc))
	e.GET("/whoami", func(c echo.Context) error {
		if ident, ok := IdentityFromContext(c); ok {
			return c.String(http.StatusOK, ident.Email())
		}
		return c.String(http.StatusOK, "anonymous")
	})
	e.GET("/private", RequireUser(func(c echo.Context) error {
		return c.String(http.StatusOK, "secret")
	}))
	return e, svc
}

func TestSessionAuthResolvesCookie(t *testing.T) {
	e, svc := newAuthFixture(t)
	token, _, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "ada@example.com", rec.Body.String())
}

func TestSessionAuthResolvesBearerHeader(t *testing.T) {
	e, svc := newAuthFixture(t)
	token, _, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "ada@example.com", rec.Body.String())
}

func TestSessionAuthContinuesAnonymousOnBadToken(t *testing.T) {
	e, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestSessionAuthIgnoresRevokedSession(t *testing.T) {
	e, svc := newAuthFixture(t)
	token, session, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), session.ID))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	e, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserAdmitsResolvedSession(t *testing.T) {
	e, svc := newAuthFixture(t)
	token, _, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", rec.Body.String())
}
