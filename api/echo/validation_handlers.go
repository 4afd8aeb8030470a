package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ashmortar/htmx-kit/internal/render"
)

// The validation endpoints back per-field hx-post triggers: each one checks
// a single field and answers with an out-of-band fragment replacing that
// field's block, success and error alike.

func (a *API) ValidateEmail(c echo.Context) error {
	var req emailField
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	if err := a.validate.Struct(&req); err != nil {
		return err
	}
	loc := a.locale(c)
	return c.HTML(http.StatusOK, render.FieldFragment(
		"email", loc.T("auth.field.email"), req.Email,
		render.FieldSuccess, loc.T("validation.email.ok"),
	))
}

func (a *API) ValidatePassword(c echo.Context) error {
	var req passwordField
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	if err := a.validate.Struct(&req); err != nil {
		return err
	}
	loc := a.locale(c)
	return c.HTML(http.StatusOK, render.FieldFragment(
		"password", loc.T("auth.field.password"), "",
		render.FieldSuccess, loc.T("validation.password.ok"),
	))
}

func (a *API) ValidateConfirmPassword(c echo.Context) error {
	var req confirmPasswordField
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}
	if err := a.validate.Struct(&req); err != nil {
		return err
	}
	loc := a.locale(c)
	return c.HTML(http.StatusOK, render.FieldFragment(
		"confirm-password", loc.T("auth.field.confirm_password"), "",
		render.FieldSuccess, loc.T("validation.confirm_password.ok"),
	))
}
