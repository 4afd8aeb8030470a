package echo

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ashmortar/htmx-kit/internal/i18n"
)

// newValidator builds the request validator. Field names in violations come
// from the form tag so they line up with the DOM ids the out-of-band swap
// convention derives from them.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type signInRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type registerRequest struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm-password" validate:"required,eqfield=Password"`
}

type emailField struct {
	Email string `form:"email" validate:"required,email"`
}

type passwordField struct {
	Password string `form:"password" validate:"required,min=8,max=72"`
}

type confirmPasswordField struct {
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm-password" validate:"required,eqfield=Password"`
}

// violationMessage maps one field violation to a localized message.
func (a *API) violationMessage(loc *i18n.Locale, fe validator.FieldError) string {
	switch fe.Field() {
	case "email":
		if fe.Tag() == "required" {
			return loc.T("validation.email.required")
		}
		return loc.T("validation.email.invalid")
	case "password":
		switch fe.Tag() {
		case "required":
			return loc.T("validation.password.required")
		case "min":
			return loc.T("validation.password.min")
		case "max":
			return loc.T("validation.password.max")
		}
	case "confirm-password":
		if fe.Tag() == "required" {
			return loc.T("validation.confirm_password.required")
		}
		return loc.T("validation.confirm_password.mismatch")
	}
	return loc.T("error.internal")
}
