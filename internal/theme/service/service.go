// Package service is the theme directory: it resolves theme ids to Theme
// records, memoizing every resolved theme for the lifetime of the
// directory.
//
// At most one upstream fetch per id is in flight at a time: concurrent
// lookups of an unresolved id join the running fetch. A failed fetch is
// returned to every caller waiting on it and is not cached, so it neither
// blocks other ids nor later retries of the same id.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"agora/internal/theme/metrics"
	"agora/internal/theme/models"
	"agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/sentinel"
)

// ErrThemeNotFound is returned when the id does not name a theme upstream.
var ErrThemeNotFound = fmt.Errorf("theme %w", sentinel.ErrNotFound)

// Fetcher reads themes from the portal service.
type Fetcher interface {
	FetchTheme(ctx context.Context, id domain.ThemeID) (*models.Theme, error)
	FetchThemes(ctx context.Context) ([]models.Theme, error)
}

// Cache is a theme store; the first Save for an id wins.
type Cache interface {
	Save(ctx context.Context, theme *models.Theme) error
	Find(ctx context.Context, id domain.ThemeID) (*models.Theme, error)
}

// Directory resolves and memoizes themes.
type Directory struct {
	fetcher      Fetcher
	local        Cache
	shared       Cache
	group        singleflight.Group
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Directory)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Directory) {
		d.metrics = m
	}
}

// WithSharedCache adds a second-level cache consulted before the network.
func WithSharedCache(c Cache) Option {
	return func(d *Directory) {
		d.shared = c
	}
}

// WithFetchTimeout bounds each upstream fetch. The fetch runs detached
// from any single caller's context so that one caller giving up does not
// fail the others waiting on the same id.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(d *Directory) {
		d.fetchTimeout = timeout
	}
}

// New constructs a Directory. local holds memoized themes for the
// directory lifetime.
func New(fetcher Fetcher, local Cache, opts ...Option) (*Directory, error) {
	if fetcher == nil {
		return nil, errors.New("theme fetcher is required")
	}
	if local == nil {
		return nil, errors.New("local theme cache is required")
	}
	d := &Directory{
		fetcher:      fetcher,
		local:        local,
		fetchTimeout: 10 * time.Second,
		logger:       slog.Default(),
		tracer:       otel.Tracer("agora/theme"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Get returns the theme for id.
//
// Errors: ErrThemeNotFound (also matching sentinel.ErrNotFound) when the
// id is unknown upstream; the upstream error otherwise; ctx.Err() when the
// caller stops waiting.
func (d *Directory) Get(ctx context.Context, id domain.ThemeID) (*models.Theme, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "theme id cannot be empty")
	}
	if t, err := d.local.Find(ctx, id); err == nil {
		d.observeHit("memory")
		return t, nil
	}

	ch := d.group.DoChan(id.String(), func() (any, error) {
		return d.resolve(ctx, id)
	})
	select {
	case res := <-ch:
		if res.Shared {
			d.observeCoalesced()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Theme).Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// List fetches every theme and memoizes each of them.
func (d *Directory) List(ctx context.Context) ([]models.Theme, error) {
	themes, err := d.fetcher.FetchThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	for i := range themes {
		if err := d.local.Save(ctx, &themes[i]); err != nil {
			d.logger.WarnContext(ctx, "failed to cache theme",
				"theme_id", themes[i].ID,
				"error", err,
			)
		}
	}
	return themes, nil
}

// resolve runs once per in-flight id: shared cache, then upstream.
func (d *Directory) resolve(ctx context.Context, id domain.ThemeID) (*models.Theme, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.fetchTimeout)
	defer cancel()

	// Another flight may have finished between the caller's miss and now.
	if t, err := d.local.Find(ctx, id); err == nil {
		d.observeHit("memory")
		return t, nil
	}

	if d.shared != nil {
		t, err := d.shared.Find(ctx, id)
		switch {
		case err == nil:
			d.observeHit("shared")
			d.remember(ctx, t, false)
			return t, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			d.logger.WarnContext(ctx, "shared theme cache unavailable",
				"theme_id", id,
				"error", err,
			)
		}
	}

	d.observeMiss()
	t, err := d.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	d.remember(ctx, t, true)
	return t, nil
}

func (d *Directory) fetch(ctx context.Context, id domain.ThemeID) (*models.Theme, error) {
	ctx, span := d.tracer.Start(ctx, "theme.fetch", trace.WithAttributes(attribute.String("theme.id", id.String())))
	defer span.End()

	start := time.Now()
	t, err := d.fetcher.FetchTheme(ctx, id)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		d.observeFetch("not_found", start)
		span.SetStatus(codes.Error, "not found")
		d.logger.InfoContext(ctx, "theme not found", "theme_id", id)
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, id)
	case err != nil:
		d.observeFetch("error", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.WarnContext(ctx, "theme fetch failed",
			"theme_id", id,
			"error", err,
		)
		return nil, fmt.Errorf("fetch theme %s: %w", id, err)
	case t == nil:
		d.observeFetch("not_found", start)
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, id)
	}
	d.observeFetch("ok", start)
	// Themes are memoized under the id they were requested by.
	if t.ID != id {
		if !t.ID.IsNil() {
			d.logger.InfoContext(ctx, "theme id differs upstream",
				"theme_id", id,
				"upstream_id", t.ID,
			)
		}
		t.ID = id
	}
	return t, nil
}

func (d *Directory) remember(ctx context.Context, t *models.Theme, share bool) {
	if err := d.local.Save(ctx, t); err != nil {
		d.logger.WarnContext(ctx, "failed to cache theme", "theme_id", t.ID, "error", err)
	}
	if share && d.shared != nil {
		if err := d.shared.Save(ctx, t); err != nil {
			d.logger.WarnContext(ctx, "failed to share theme", "theme_id", t.ID, "error", err)
		}
	}
}

func (d *Directory) observeHit(level string) {
	if d.metrics != nil {
		d.metrics.ObserveHit(level)
	}
}

func (d *Directory) observeMiss() {
	if d.metrics != nil {
		d.metrics.ObserveMiss()
	}
}

func (d *Directory) observeCoalesced() {
	if d.metrics != nil {
		d.metrics.ObserveCoalesced()
	}
}

func (d *Directory) observeFetch(outcome string, start time.Time) {
	if d.metrics != nil {
		d.metrics.ObserveFetch(outcome, start)
	}
}
