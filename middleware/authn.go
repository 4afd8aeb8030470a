// Package middleware provides the echo middleware for session
// authentication.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ashmortar/htmx-kit/domain"
	"github.com/ashmortar/htmx-kit/services"
)

// TokenCookieName is the cookie carrying the signed session JWT.
const TokenCookieName = "token"

const (
	identityContextKey = "auth.identity"
	sessionContextKey  = "auth.session"
)

// SessionAuth resolves the current session from the token cookie or a
// Bearer header and stores the identity in the request context. Anonymous
// and failed resolutions pass through: pages render their signed-out state
// and guarded routes reject separately via RequireUser.
func SessionAuth(sessions *services.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token != "" {
				ident, session, err := sessions.Resolve(c.Request().Context(), token)
				if err != nil {
					log.Debug().Err(err).Msg("session resolution failed, continuing anonymous")
				} else {
					c.Set(identityContextKey, ident)
					c.Set(sessionContextKey, session)
				}
			}
			return next(c)
		}
	}
}

// RequireUser guards a route: without a resolved identity it returns a
// generic unauthorized error, never distinguishing missing, expired, or
// revoked sessions.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := IdentityFromContext(c); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

// IdentityFromContext retrieves the identity stored by SessionAuth.
func IdentityFromContext(c echo.Context) (*domain.Identity, bool) {
	ident, ok := c.Get(identityContextKey).(*domain.Identity)
	return ident, ok && ident != nil
}

// SessionFromContext retrieves the session stored by SessionAuth.
func SessionFromContext(c echo.Context) (*domain.Session, bool) {
	session, ok := c.Get(sessionContextKey).(*domain.Session)
	return session, ok && session != nil
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
