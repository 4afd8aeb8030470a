// Package i18n loads the embedded message catalogs and negotiates a locale
// from the Accept-Language header.
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const defaultLang = "en"

// Bundle holds every loaded catalog plus the negotiation matcher.
type Bundle struct {
	catalogs map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewBundle reads locales/*.json from the given filesystem. Each file name
// (minus extension) is the language tag; "en" must be present because it is
// the fallback for missing keys.
func NewBundle(fsys fs.FS) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, "locales")
	if err != nil {
		return nil, fmt.Errorf("reading locales dir: %w", err)
	}

	b := &Bundle{catalogs: make(map[string]map[string]string)}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		lang := strings.TrimSuffix(name, ".json")
		raw, err := fs.ReadFile(fsys, path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("reading locale %s: %w", name, err)
		}
		messages := make(map[string]string)
		if err := json.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", name, err)
		}
		b.catalogs[lang] = messages
		langs = append(langs, lang)
	}

	if _, ok := b.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("locale catalog %q is required", defaultLang)
	}

	// Default language first so the matcher falls back to it.
	sort.Slice(langs, func(i, j int) bool {
		if langs[i] == defaultLang {
			return true
		}
		if langs[j] == defaultLang {
			return false
		}
		return langs[i] < langs[j]
	})
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("locale %q is not a valid language tag: %w", lang, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Pick negotiates the best locale for an Accept-Language header value.
// An empty or unparseable header yields the default locale.
func (b *Bundle) Pick(acceptLanguage string) *Locale {
	_, index, _ := b.matcher.Match(parseAccept(acceptLanguage)...)
	lang := b.tags[index].String()
	// Matched tags can carry regions ("en-US"); catalogs are keyed by base.
	if _, ok := b.catalogs[lang]; !ok {
		base, _ := b.tags[index].Base()
		lang = base.String()
	}
	if _, ok := b.catalogs[lang]; !ok {
		lang = defaultLang
	}
	return &Locale{lang: lang, messages: b.catalogs[lang], fallback: b.catalogs[defaultLang]}
}

func parseAccept(header string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return []language.Tag{language.English}
	}
	return tags
}

// Default returns a locale with no catalog: every key resolves to itself.
// Useful where a Locale is required but no bundle is wired (tests, fallbacks).
func Default() *Locale {
	return &Locale{lang: defaultLang}
}

// Locale resolves message keys for one negotiated language.
type Locale struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// Lang returns the negotiated language tag, for the <html lang> attribute.
func (l *Locale) Lang() string { return l.lang }

// T resolves a message key, formatting args with Sprintf. Missing keys fall
// back to the default catalog and finally to the key itself, so a missing
// translation never blanks out the page.
func (l *Locale) T(key string, args ...any) string {
	msg, ok := l.messages[key]
	if !ok {
		msg, ok = l.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
