// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http.
//
//	lang := requestcontext.Language(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithLanguage(ctx, domain.LanguageGerman)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"agora/pkg/domain"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	languageKey    struct{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time. Falls back to time.Now() outside
// HTTP requests (loader runs, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Language retrieves the active language. ok is false when none was set;
// callers then use their configured default.
func Language(ctx context.Context) (domain.Language, bool) {
	lang, ok := ctx.Value(languageKey{}).(domain.Language)
	return lang, ok
}

// WithLanguage sets the active language for the rest of the request.
func WithLanguage(ctx context.Context, lang domain.Language) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}
