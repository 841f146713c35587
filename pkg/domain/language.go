package domain

import (
	"strings"

	dErrors "agora/pkg/domain-errors"
)

// Language is a UI/content language code.
// Invariant: the value is one of the supported codes.
//
// Usage: construct via ParseLanguage at trust boundaries (query strings,
// headers, configuration); direct casting bypasses validation.
type Language string

// Supported languages.
const (
	LanguageFrench  Language = "fr"
	LanguageGerman  Language = "de"
	LanguageEnglish Language = "en"
)

// supportedLanguages lists every code in the fixed fallback order.
var supportedLanguages = []Language{LanguageFrench, LanguageGerman, LanguageEnglish}

// ParseLanguage constructs a Language from external input. Case and
// surrounding whitespace are ignored, and region subtags ("de-CH") are
// reduced to the primary code.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseLanguage(s string) (Language, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if code == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "language cannot be empty")
	}
	l := Language(code)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported language: "+s)
	}
	return l, nil
}

// IsValid reports whether the language is one of the supported codes.
func (l Language) IsValid() bool {
	for _, s := range supportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// SupportedLanguages returns every supported language in fallback order.
func SupportedLanguages() []Language {
	return append([]Language(nil), supportedLanguages...)
}

// DefaultLanguage is the language used when none was selected.
func DefaultLanguage() Language {
	return LanguageFrench
}
