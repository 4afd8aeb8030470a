// Package web carries the embedded HTML templates and message catalogs.
package web

import "embed"

//go:embed templates
var Templates embed.FS

//go:embed locales
var Locales embed.FS
