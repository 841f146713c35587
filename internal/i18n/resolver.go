package i18n

import (
	"fmt"
	"strconv"
	"strings"

	"agora/pkg/domain"
)

// Languages is the configured language set: the fallback order and the
// default language. Build one per process from configuration and pass it
// where text is resolved; the zero value is not usable.
type Languages struct {
	order    []domain.Language
	fallback domain.Language
}

// Resolution describes how a string was resolved.
type Resolution struct {
	Text      string
	Requested domain.Language
	// Resolved is the language whose entry was used; empty when nothing
	// resolved.
	Resolved     domain.Language
	FallbackUsed bool
}

var defaultLanguages = MustLanguages(domain.DefaultLanguage(), domain.SupportedLanguages()...)

// DefaultLanguages returns the built-in set: fr, de, en with fr as default.
func DefaultLanguages() *Languages {
	return defaultLanguages
}

// NewLanguages builds a language set. Duplicates are dropped, keeping the
// first occurrence. The default must be part of the order.
func NewLanguages(fallback domain.Language, order ...domain.Language) (*Languages, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("at least one language is required")
	}
	seen := make(map[domain.Language]struct{}, len(order))
	cleaned := make([]domain.Language, 0, len(order))
	for _, l := range order {
		if !l.IsValid() {
			return nil, fmt.Errorf("unsupported language %q", l)
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		cleaned = append(cleaned, l)
	}
	if _, ok := seen[fallback]; !ok {
		return nil, fmt.Errorf("default language %q is not in the configured set", fallback)
	}
	return &Languages{order: cleaned, fallback: fallback}, nil
}

// MustLanguages is NewLanguages for static configuration; it panics on error.
func MustLanguages(fallback domain.Language, order ...domain.Language) *Languages {
	l, err := NewLanguages(fallback, order...)
	if err != nil {
		panic(err)
	}
	return l
}

// Default returns the default language.
func (l *Languages) Default() domain.Language {
	return l.fallback
}

// Order returns the configured languages in fallback order.
func (l *Languages) Order() []domain.Language {
	return append([]domain.Language(nil), l.order...)
}

// Supports reports whether lang is in the configured set.
func (l *Languages) Supports(lang domain.Language) bool {
	for _, o := range l.order {
		if o == lang {
			return true
		}
	}
	return false
}

// Resolve returns the display string for lang following the package
// resolution order.
func (l *Languages) Resolve(text LocalizedString, lang domain.Language) string {
	return l.ResolveWithMeta(text, lang).Text
}

// ResolveWithMeta is Resolve plus the language that was actually used.
func (l *Languages) ResolveWithMeta(text LocalizedString, lang domain.Language) Resolution {
	res := Resolution{Requested: lang}
	if l.Supports(lang) {
		if v, ok := text.get(lang); ok {
			res.Text, res.Resolved = v, lang
			return res
		}
	}
	res.FallbackUsed = true
	if v, ok := text.get(l.fallback); ok {
		res.Text, res.Resolved = v, l.fallback
		return res
	}
	for _, o := range l.order {
		if v, ok := text.get(o); ok {
			res.Text, res.Resolved = v, o
			return res
		}
	}
	return res
}

// Negotiate picks the best configured language for an Accept-Language
// header value, falling back to the default. Quality values are honoured;
// ties keep header order.
func (l *Languages) Negotiate(header string) domain.Language {
	best, bestQ := domain.Language(""), -1.0
	for _, part := range strings.Split(header, ",") {
		tag, q := parseAcceptPart(part)
		if q <= 0 {
			continue
		}
		lang, err := domain.ParseLanguage(tag)
		if err != nil || !l.Supports(lang) {
			continue
		}
		if q > bestQ {
			best, bestQ = lang, q
		}
	}
	if best == "" {
		return l.fallback
	}
	return best
}

func parseAcceptPart(part string) (string, float64) {
	fields := strings.Split(strings.TrimSpace(part), ";")
	tag := strings.TrimSpace(fields[0])
	q := 1.0
	for _, f := range fields[1:] {
		f = strings.TrimSpace(f)
		if v, ok := strings.CutPrefix(f, "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return tag, 0
			}
			q = parsed
		}
	}
	return tag, q
}

// ResolveText resolves text with the built-in language set.
func ResolveText(text LocalizedString, lang domain.Language) string {
	return defaultLanguages.Resolve(text, lang)
}
