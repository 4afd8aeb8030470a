package echo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ashmortar/htmx-kit/domain"
	"github.com/ashmortar/htmx-kit/internal/i18n"
	"github.com/ashmortar/htmx-kit/internal/render"
	"github.com/ashmortar/htmx-kit/middleware"
)

// HXRedirectHeader tells the partial-update client to do a full navigation.
const HXRedirectHeader = "HX-Redirect"

// respond sends a tagged render result, applying the wrapping rule: a
// fragment on a non-partial request is wrapped in the document shell, and
// everything else passes through untouched.
func (a *API) respond(c echo.Context, res render.Result, pc render.PageContext) error {
	if res.Kind == render.KindRedirect {
		if render.IsPartial(c.Request()) {
			c.Response().Header().Set(HXRedirectHeader, res.Location)
			return c.NoContent(http.StatusOK)
		}
		return c.Redirect(http.StatusFound, res.Location)
	}
	wrapped, err := a.shell.Wrap(render.IsPartial(c.Request()), res, pc)
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, wrapped.HTML)
}

// locale negotiates the request's locale from Accept-Language.
func (a *API) locale(c echo.Context) *i18n.Locale {
	return a.bundle.Pick(c.Request().Header.Get("Accept-Language"))
}

// pageContext assembles the shell data for the current request.
func (a *API) pageContext(c echo.Context, title string) render.PageContext {
	ident, _ := middleware.IdentityFromContext(c)
	return render.PageContext{Title: title, Loc: a.locale(c), Identity: ident}
}

// renderPage executes a named page template and responds with it.
func (a *API) renderPage(c echo.Context, name, titleKey string) error {
	loc := a.locale(c)
	ident, _ := middleware.IdentityFromContext(c)
	res, err := a.shell.RenderFragment(name, map[string]any{"Loc": loc, "Identity": ident})
	if err != nil {
		return err
	}
	return a.respond(c, res, render.PageContext{Title: loc.T(titleKey), Loc: loc, Identity: ident})
}

// alertFragment renders a small status alert targeted at the form's status
// region.
func (a *API) alertFragment(level, message string) (string, error) {
	res, err := a.shell.RenderFragment("alert", map[string]any{"Level": level, "Message": message})
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// ErrorHandler is the single recovery point for the request pipeline.
//
// Field validation failures become out-of-band error fragments with HTTP
// 200: the partial-update client treats the swap payload, not the status
// code, as the signal. Authentication failures are a generic 401. Duplicate
// identities surface as an "already registered" alert. Everything else is a
// logged 500 with a generic message.
func (a *API) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	loc := a.locale(c)

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		violations := make([]render.FieldViolation, 0, len(vErrs))
		for _, fe := range vErrs {
			violations = append(violations, render.FieldViolation{
				Field:   fe.Field(),
				Label:   loc.T(fieldLabelKey(fe.Field())),
				Value:   fmt.Sprintf("%v", fe.Value()),
				Message: a.violationMessage(loc, fe),
			})
		}
		if hErr := c.HTML(http.StatusOK, render.FieldErrorFragments(violations)); hErr != nil {
			log.Error().Err(hErr).Msg("writing validation fragments failed")
		}
		return
	}

	status := http.StatusInternalServerError
	level := "error"
	message := loc.T("error.internal")
	switch {
	case errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrDuplicateIdentity):
		status = http.StatusOK
		message = loc.T("auth.error.email_taken")
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = loc.T("auth.error.invalid_credentials")
	default:
		var hErr *echo.HTTPError
		if errors.As(err, &hErr) {
			status = hErr.Code
			if status == http.StatusUnauthorized {
				message = loc.T("error.unauthorized")
			} else if status < http.StatusInternalServerError {
				message = http.StatusText(status)
			}
		}
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	}

	body, rErr := a.alertFragment(level, message)
	if rErr != nil {
		body = message
	}
	if hErr := c.HTML(status, body); hErr != nil {
		log.Error().Err(hErr).Msg("writing error response failed")
	}
}

func fieldLabelKey(field string) string {
	switch field {
	case "email":
		return "auth.field.email"
	case "password":
		return "auth.field.password"
	case "confirm-password":
		return "auth.field.confirm_password"
	default:
		return field
	}
}
