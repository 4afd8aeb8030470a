package echo

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ashmortar/htmx-kit/domain"
	"github.com/ashmortar/htmx-kit/internal/render"
	"github.com/ashmortar/htmx-kit/middleware"
	"github.com/ashmortar/htmx-kit/services"
)

// RedirectCookieName carries the post-OAuth redirect target across the
// provider round trip; it is cleared as soon as it is used.
const RedirectCookieName = "redirect"

// GoogleStart begins the OAuth dance: mint a CSRF state bound to the
// requested redirect target and send the user to Google.
func (a *API) GoogleStart(c echo.Context) error {
	target := safeRedirectTarget(c.QueryParam("redirect"))
	state, err := a.states.Issue(target)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     RedirectCookieName,
		Value:    target,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.cfg.IsProduction(),
	})
	return c.Redirect(http.StatusFound, a.provider.AuthCodeURL(state))
}

// GoogleCallback finishes the OAuth dance: validate state, exchange the
// code, fetch the profile, reconcile it onto exactly one user, open a
// session, and send the user where they were headed.
func (a *API) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if providerErr := c.QueryParam("error"); providerErr != "" {
		log.Warn().Str("error", providerErr).Msg("google callback returned an error")
		return c.Redirect(http.StatusFound, "/sign-in")
	}

	target, err := a.states.Consume(c.QueryParam("state"))
	if err != nil {
		log.Warn().Err(err).Msg("google callback state validation failed")
		return c.Redirect(http.StatusFound, "/sign-in")
	}
	if cookie, cErr := c.Cookie(RedirectCookieName); cErr == nil && target == "/" {
		target = safeRedirectTarget(cookie.Value)
	}
	a.clearCookie(c, RedirectCookieName)

	token, err := a.provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		log.Error().Err(err).Msg("google code exchange failed")
		return c.Redirect(http.StatusFound, "/sign-in")
	}
	info, err := a.provider.FetchUserInfo(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("google userinfo fetch failed")
		return c.Redirect(http.StatusFound, "/sign-in")
	}

	var refreshToken *string
	if token.RefreshToken != "" {
		refreshToken = &token.RefreshToken
	}
	ident, err := a.recon.Reconcile(ctx, services.ReconcileInput{
		Credential: domain.Credential{
			Type:         domain.CredentialTypeGoogle,
			ExternalID:   info.ProviderUserID,
			Value:        token.AccessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    token.Expiry,
		},
		PII: []domain.PiiAttr{
			{Type: domain.PiiTypeEmail, Value: info.Email},
			{Type: domain.PiiTypeFirstName, Value: info.FirstName},
			{Type: domain.PiiTypeLastName, Value: info.LastName},
			{Type: domain.PiiTypeDisplayName, Value: info.DisplayName},
			{Type: domain.PiiTypeProfilePhotoURL, Value: info.PictureURL},
		},
	})
	if err != nil {
		return err
	}

	if err := a.openSession(c, ident.User.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, target)
}

// SignIn handles the local password form.
func (a *API) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	if err := a.validate.Struct(&req); err != nil {
		return err
	}

	ident, err := a.recon.SignInLocal(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := a.openSession(c, ident.User.ID); err != nil {
		return err
	}
	return a.respond(c, render.Redirect("/"), a.pageContext(c, ""))
}

// Register handles the local registration form.
func (a *API) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	if err := a.validate.Struct(&req); err != nil {
		return err
	}

	ident, err := a.recon.RegisterLocal(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := a.openSession(c, ident.User.ID); err != nil {
		return err
	}

	loc := a.locale(c)
	body, err := a.alertFragment("success", loc.T("auth.registered"))
	if err != nil {
		return err
	}
	return a.respond(c, render.Fragment(body), a.pageContext(c, loc.T("auth.register.title")))
}

// SignOut revokes the current session and clears the token cookie.
func (a *API) SignOut(c echo.Context) error {
	if session, ok := middleware.SessionFromContext(c); ok {
		if err := a.sessions.Revoke(c.Request().Context(), session.ID); err != nil {
			log.Error().Err(err).Str("session_id", session.ID).Msg("revoking session failed")
		}
	}
	a.clearCookie(c, middleware.TokenCookieName)
	return a.respond(c, render.Redirect("/"), a.pageContext(c, ""))
}

func (a *API) openSession(c echo.Context, userID string) error {
	token, session, err := a.sessions.Create(c.Request().Context(), userID, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.cfg.IsProduction(),
	})
	return nil
}

func (a *API) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.cfg.IsProduction(),
	})
}

// safeRedirectTarget confines redirects to local paths so the OAuth flow
// cannot be used as an open redirect.
func safeRedirectTarget(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	return raw
}
