package middleware

import (
	"net/http"

	"agora/internal/i18n"
	"agora/pkg/domain"
	"agora/pkg/requestcontext"
)

// Language selects the active language for a request: a supported ?lang=
// value wins, then the Accept-Language header, then the configured
// default. The choice is put on the context and echoed in
// Content-Language.
func Language(langs *i18n.Languages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := selectLanguage(langs, r)
			w.Header().Set("Content-Language", lang.String())
			next.ServeHTTP(w, r.WithContext(requestcontext.WithLanguage(r.Context(), lang)))
		})
	}
}

func selectLanguage(langs *i18n.Languages, r *http.Request) domain.Language {
	if q := r.URL.Query().Get("lang"); q != "" {
		if lang, err := domain.ParseLanguage(q); err == nil && langs.Supports(lang) {
			return lang
		}
	}
	return langs.Negotiate(r.Header.Get("Accept-Language"))
}

// ActiveLanguage returns the request language, or the default when the
// middleware did not run.
func ActiveLanguage(r *http.Request, langs *i18n.Languages) domain.Language {
	if lang, ok := requestcontext.Language(r.Context()); ok {
		return lang
	}
	return langs.Default()
}
