package render

import (
	"html/template"
	"strings"
)

// FieldVariant selects the visual state of a rendered form field.
type FieldVariant string

const (
	FieldDefault FieldVariant = "default"
	FieldSuccess FieldVariant = "success"
	FieldError   FieldVariant = "error"
)

// VariantFor applies the precedence rule: an error wins, then an explicit
// success flag, then the default state.
func VariantFor(errMsg string, success bool) FieldVariant {
	if errMsg != "" {
		return FieldError
	}
	if success {
		return FieldSuccess
	}
	return FieldDefault
}

// MessageFor picks the displayed message: the error message, else the
// success message, else empty.
func MessageFor(errMsg, successMsg string) string {
	if errMsg != "" {
		return errMsg
	}
	return successMsg
}

var fieldTpl = template.Must(template.New("field").Parse(strings.TrimSpace(`
<div id="{{.Field}}-input" hx-swap-oob="true" class="form-field form-field-{{.Variant}}">
<label for="{{.Field}}">{{.Label}}</label>
<input id="{{.Field}}" name="{{.Field}}" type="{{.InputType}}" value="{{.Value}}" hx-post="/validation/{{.Field}}" hx-trigger="change, keyup delay:350ms changed" hx-swap="none">
<span id="{{.Field}}-error" class="form-field-message">{{.Message}}</span>
</div>`)))

// FieldFragment renders one out-of-band form field swap. The wrapper id is
// derived from the field name so the client replaces the matching element
// wherever it sits in the current page.
func FieldFragment(field, label, value string, variant FieldVariant, msg string) string {
	inputType := "text"
	if strings.Contains(field, "password") {
		inputType = "password"
		value = "" // never echo passwords back
	} else if field == "email" {
		inputType = "email"
	}

	var sb strings.Builder
	// The only template error possible here is a broken writer; strings.Builder never fails.
	_ = fieldTpl.Execute(&sb, map[string]any{
		"Field":     field,
		"Label":     label,
		"Value":     value,
		"Variant":   variant,
		"Message":   msg,
		"InputType": inputType,
	})
	return sb.String()
}

// FieldErrorFragments renders one out-of-band error fragment per violated
// field, in the given order, and concatenates them.
func FieldErrorFragments(violations []FieldViolation) string {
	var sb strings.Builder
	for _, v := range violations {
		sb.WriteString(FieldFragment(v.Field, v.Label, v.Value, FieldError, v.Message))
	}
	return sb.String()
}

// FieldViolation is one field-level validation failure.
type FieldViolation struct {
	Field   string
	Label   string
	Value   string
	Message string
}
