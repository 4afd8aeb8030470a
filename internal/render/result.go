// Package render implements the partial-render response protocol: handlers
// return a tagged Result (fragment, document, or redirect) and a pure
// wrapping rule decides whether a fragment gets the full document shell.
package render

import (
	"net/http"
	"regexp"
	"strings"
)

// HXRequestHeader marks a request as a partial update. The client-side swap
// machinery sets it on every boosted/ajax request.
const HXRequestHeader = "HX-Request"

// DoctypeMarker opens every full HTML document this server emits.
const DoctypeMarker = "<!doctype html>"

// Kind tags a Result (or a classified raw body).
type Kind int

const (
	// KindNone marks a body that is not HTML at all.
	KindNone Kind = iota
	KindFragment
	KindDocument
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "fragment"
	case KindDocument:
		return "document"
	case KindRedirect:
		return "redirect"
	default:
		return "none"
	}
}

// Result is the explicit handler return shape. Handlers state their intent
// up front instead of having the response body sniffed after the fact.
type Result struct {
	Kind     Kind
	HTML     string
	Location string // redirect target, only for KindRedirect
}

// Fragment tags markup that may be wrapped in the document shell.
func Fragment(html string) Result { return Result{Kind: KindFragment, HTML: html} }

// Document tags markup that is already a complete page and must never be
// re-wrapped.
func Document(html string) Result { return Result{Kind: KindDocument, HTML: html} }

// Redirect produces a 302 to the given location.
func Redirect(location string) Result { return Result{Kind: KindRedirect, Location: location} }

var htmlTagRe = regexp.MustCompile(`(?s)</?[A-Za-z][^>]*>`)

// Classify decides what a raw body is: a fragment (contains an HTML tag and
// does not open with the doctype marker), a document (contains an HTML tag
// and does open with it), or neither. Handlers should return tagged Results
// instead; Classify exists for bodies of unknown provenance at the response
// boundary.
func Classify(body string) Kind {
	if !htmlTagRe.MatchString(body) {
		return KindNone
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(body)), DoctypeMarker) {
		return KindDocument
	}
	return KindFragment
}

// IsPartial reports whether the request carries the partial-update marker.
func IsPartial(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(HXRequestHeader), "true")
}
