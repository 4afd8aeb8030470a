// Package echo wires the application's HTTP surface onto the echo router:
// pages, auth flows, field validation endpoints, and the response helper
// that applies the partial-render wrapping rule.
package echo

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ashmortar/htmx-kit/config"
	"github.com/ashmortar/htmx-kit/internal/federation"
	"github.com/ashmortar/htmx-kit/internal/i18n"
	"github.com/ashmortar/htmx-kit/internal/render"
	"github.com/ashmortar/htmx-kit/services"
)

// API holds every dependency the HTTP handlers need.
type API struct {
	cfg      *config.Config
	shell    *render.Shell
	bundle   *i18n.Bundle
	recon    *services.ReconciliationService
	sessions *services.SessionService
	provider federation.Provider
	states   *federation.StateStore
	db       *pgxpool.Pool
	validate *validator.Validate
}

// NewAPI initializes the API.
func NewAPI(
	cfg *config.Config,
	shell *render.Shell,
	bundle *i18n.Bundle,
	recon *services.ReconciliationService,
	sessions *services.SessionService,
	provider federation.Provider,
	states *federation.StateStore,
	db *pgxpool.Pool,
) *API {
	return &API{
		cfg:      cfg,
		shell:    shell,
		bundle:   bundle,
		recon:    recon,
		sessions: sessions,
		provider: provider,
		states:   states,
		db:       db,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the full route table explicitly; no reflection,
// the table below is the single source of truth.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = a.ErrorHandler

	e.GET("/", a.Index)
	e.GET("/about", a.About)
	e.GET("/contact", a.Contact)
	e.GET("/privacy", a.Privacy)
	e.GET("/terms", a.Terms)

	e.GET("/sign-in", a.SignInPage)
	e.GET("/register", a.RegisterPage)

	e.GET("/auth/google", a.GoogleStart)
	e.GET("/auth/google/callback", a.GoogleCallback)
	e.POST("/auth/sign-in", a.SignIn)
	e.POST("/auth/register", a.Register)
	e.POST("/auth/sign-out", a.SignOut)

	e.POST("/validation/email", a.ValidateEmail)
	e.POST("/validation/password", a.ValidatePassword)
	e.POST("/validation/confirm-password", a.ValidateConfirmPassword)

	e.GET("/healthz", a.Healthz)

	if a.cfg.DebugRoutes {
		for _, route := range e.Routes() {
			log.Info().Str("method", route.Method).Str("path", route.Path).Msg("route registered")
		}
	}
}

// Healthz pings the database pool so load balancers see real readiness.
func (a *API) Healthz(c echo.Context) error {
	if err := a.db.Ping(c.Request().Context()); err != nil {
		log.Error().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
