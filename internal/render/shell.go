package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ashmortar/htmx-kit/domain"
	"github.com/ashmortar/htmx-kit/internal/i18n"
	"github.com/ashmortar/htmx-kit/web"
)

// PageContext carries per-request data the document shell needs.
type PageContext struct {
	Title    string
	Loc      *i18n.Locale     // nil falls back to key-echoing default
	Identity *domain.Identity // nil when signed out
}

// Shell renders the full document chrome (head, nav, footer) around a
// fragment, and renders named page fragments from the embedded templates.
type Shell struct {
	tpl       *template.Template
	appTitle  string
	debugHTMX bool
}

// NewShell parses the embedded templates. appTitle becomes the <title>
// suffix; debugHTMX switches the layout to the unminified htmx script.
func NewShell(appTitle string, debugHTMX bool) (*Shell, error) {
	tpl, err := template.New("web").ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Shell{tpl: tpl, appTitle: appTitle, debugHTMX: debugHTMX}, nil
}

// RenderFragment executes the named template and returns it as a fragment
// Result, subject to the wrapping rule at the response boundary.
func (s *Shell) RenderFragment(name string, data any) (Result, error) {
	var sb strings.Builder
	if err := s.tpl.ExecuteTemplate(&sb, name, data); err != nil {
		return Result{}, fmt.Errorf("rendering %s: %w", name, err)
	}
	return Fragment(sb.String()), nil
}

// Wrap applies the wrapping rule as a pure function of the request marker
// and the tagged result: a fragment on a non-partial request gets the full
// document shell; documents, redirects, and partial-request fragments pass
// through unchanged.
func (s *Shell) Wrap(partial bool, res Result, pc PageContext) (Result, error) {
	if partial || res.Kind != KindFragment {
		return res, nil
	}

	loc := pc.Loc
	if loc == nil {
		loc = i18n.Default()
	}
	title := s.appTitle
	if pc.Title != "" {
		title = pc.Title + " | " + s.appTitle
	}

	var sb strings.Builder
	err := s.tpl.ExecuteTemplate(&sb, "layout", map[string]any{
		"Title":     title,
		"AppTitle":  s.appTitle,
		"Lang":      loc.Lang(),
		"Loc":       loc,
		"Identity":  pc.Identity,
		"DebugHTMX": s.debugHTMX,
		"Body":      template.HTML(res.HTML), //nolint:gosec // handler output, not user input
	})
	if err != nil {
		return Result{}, fmt.Errorf("rendering layout: %w", err)
	}
	return Document(sb.String()), nil
}
