// Package handler is the presentation API: theme pages, process
// collections, status labels and the viewer's age, every string resolved
// to the request language.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"agora/internal/aggregate"
	"agora/internal/i18n"
	"agora/internal/platform/middleware"
	"agora/internal/process/status"
	themeModels "agora/internal/theme/models"
	"agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/httputil"
	"agora/pkg/platform/sentinel"
	"agora/pkg/requestcontext"
)

// Themes resolves theme ids.
type Themes interface {
	Get(ctx context.Context, id domain.ThemeID) (*themeModels.Theme, error)
	List(ctx context.Context) ([]themeModels.Theme, error)
}

// Aggregates exposes the latest loaded collections.
type Aggregates interface {
	Aggregate(themeID domain.ThemeID) aggregate.ThemeAggregate
	Collection(kind domain.ProcessKind) (aggregate.Collection, bool)
}

// Ages computes the viewer age from the persisted profile.
type Ages interface {
	Current(ctx context.Context) (int, bool, error)
}

// Handler wires presentation endpoints to the portal core.
type Handler struct {
	themes     Themes
	aggregates Aggregates
	ages       Ages
	langs      *i18n.Languages
	logger     *slog.Logger
}

// New constructs a handler. ages may be nil when no profile store is
// configured; the viewer age is then always unknown.
func New(themes Themes, aggregates Aggregates, ages Ages, langs *i18n.Languages, logger *slog.Logger) *Handler {
	if langs == nil {
		langs = i18n.DefaultLanguages()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		themes:     themes,
		aggregates: aggregates,
		ages:       ages,
		langs:      langs,
		logger:     logger,
	}
}

// Register mounts the endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Language(h.langs))
		r.Get("/themes", h.HandleListThemes)
		r.Get("/themes/{id}", h.HandleGetTheme)
		r.Get("/themes/{id}/aggregate", h.HandleThemeAggregate)
		r.Get("/processes/{kind}", h.HandleListProcesses)
		r.Get("/status/{kind}/{raw}", h.HandleClassifyStatus)
		r.Get("/me/age", h.HandleAge)
	})
}

// HandleListThemes handles GET /api/themes.
func (h *Handler) HandleListThemes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	themes, err := h.themes.List(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "list themes failed")
		return
	}
	v := h.viewer(r, false)
	out := make([]*ThemeResponse, 0, len(themes))
	for i := range themes {
		out = append(out, v.theme(&themes[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGetTheme handles GET /api/themes/{id}.
func (h *Handler) HandleGetTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseThemeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	theme, err := h.themes.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "theme lookup failed", "theme_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.viewer(r, false).theme(theme))
}

// HandleThemeAggregate handles GET /api/themes/{id}/aggregate. A theme
// that cannot be resolved because the portal is unavailable still gets
// its aggregate, without theme details; an unknown theme is a 404.
func (h *Handler) HandleThemeAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseThemeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	theme, err := h.themes.Get(ctx, id)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		h.writeError(ctx, w, err, "theme lookup failed", "theme_id", id)
		return
	case err != nil:
		h.logger.WarnContext(ctx, "serving aggregate without theme details",
			"request_id", requestcontext.RequestID(ctx),
			"theme_id", id,
			"error", err,
		)
	}
	agg := h.aggregates.Aggregate(id)
	httputil.WriteJSON(w, http.StatusOK, h.viewer(r, true).aggregate(agg, theme))
}

// HandleListProcesses handles GET /api/processes/{kind}.
func (h *Handler) HandleListProcesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := domain.ParseProcessKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, ok := h.aggregates.Collection(kind)
	if ok && c.Err != nil && !c.Loaded {
		h.writeError(ctx, w, dErrors.Wrap(c.Err, dErrors.CodeUnavailable, kind.String()+" collection unavailable"),
			"collection unavailable", "kind", kind)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ProcessListResponse{
		Kind:   kind.String(),
		Loaded: ok && c.Loaded,
		Stale:  c.Stale(),
		Items:  h.viewer(r, kind == domain.KindYouthPoll).processes(c.Items),
	})
}

// HandleClassifyStatus handles GET /api/status/{kind}/{raw}.
func (h *Handler) HandleClassifyStatus(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseProcessKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	raw, err := url.PathUnescape(chi.URLParam(r, "raw"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed status token"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.viewer(r, false).status(status.Classify(kind, raw)))
}

// HandleAge handles GET /api/me/age.
func (h *Handler) HandleAge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.ages == nil {
		httputil.WriteJSON(w, http.StatusOK, &AgeResponse{})
		return
	}
	age, known, err := h.ages.Current(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "profile lookup failed")
		return
	}
	resp := &AgeResponse{Known: known}
	if known {
		resp.Age = &age
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// viewer builds the rendering context. The age is only looked up when the
// response can contain youth polls; lookup failures leave it unknown.
func (h *Handler) viewer(r *http.Request, withAge bool) viewer {
	v := viewer{langs: h.langs, lang: middleware.ActiveLanguage(r, h.langs)}
	if !withAge || h.ages == nil {
		return v
	}
	age, known, err := h.ages.Current(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "viewer age unavailable",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		return v
	}
	v.age, v.ageKnown = age, known
	return v
}

// writeError maps core errors to domain codes, logs, and writes the body.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string, attrs ...any) {
	mapped := err
	var de *dErrors.Error
	if !errors.As(err, &de) {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			mapped = dErrors.Wrap(err, dErrors.CodeNotFound, "not found")
		case errors.Is(err, sentinel.ErrUnavailable):
			mapped = dErrors.Wrap(err, dErrors.CodeUnavailable, "portal service unavailable")
		}
	}
	level := slog.LevelWarn
	if dErrors.CodeOf(mapped) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	h.logger.Log(ctx, level, msg, args...)
	httputil.WriteError(w, mapped)
}
