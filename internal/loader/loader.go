// Package loader fetches every process collection from the portal
// service, normalizes it and hands it to the aggregation tracker.
//
// Kinds load independently: one goroutine per kind, no ordering between
// them, and a failed kind never cancels the others. Each finished load
// replaces that kind's collection in the tracker, so aggregates grow
// monotonically while loads complete.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"agora/internal/aggregate"
	"agora/internal/process/models"
	"agora/internal/process/normalize"
	"agora/pkg/domain"
	"agora/pkg/platform/diagnostics"
	"agora/pkg/requestcontext"
)

// Source returns the raw records of one process kind.
type Source interface {
	FetchCollection(ctx context.Context, kind domain.ProcessKind) ([]json.RawMessage, error)
}

type Loader struct {
	source      Source
	tracker     *aggregate.Tracker
	diagnostics diagnostics.Publisher
	kinds       []domain.ProcessKind
	logger      *slog.Logger
	metrics     *Metrics
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// WithDiagnostics publishes data-quality events to p.
func WithDiagnostics(p diagnostics.Publisher) Option {
	return func(l *Loader) {
		l.diagnostics = p
	}
}

// WithKinds restricts loading to the given kinds.
func WithKinds(kinds ...domain.ProcessKind) Option {
	return func(l *Loader) {
		l.kinds = append([]domain.ProcessKind(nil), kinds...)
	}
}

func New(source Source, tracker *aggregate.Tracker, opts ...Option) (*Loader, error) {
	if source == nil {
		return nil, errors.New("collection source is required")
	}
	if tracker == nil {
		return nil, errors.New("aggregate tracker is required")
	}
	l := &Loader{
		source:      source,
		tracker:     tracker,
		diagnostics: diagnostics.Discard{},
		kinds:       domain.AllProcessKinds(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Report summarizes one LoadAll run.
type Report struct {
	Loaded   []domain.ProcessKind
	Failed   map[domain.ProcessKind]error
	Records  int
	Skipped  int
	Unmapped int
}

// LoadAll loads every configured kind concurrently and waits for all of
// them. Failures are recorded per kind in the tracker and the report.
func (l *Loader) LoadAll(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		report = Report{Failed: make(map[domain.ProcessKind]error)}
		g      errgroup.Group
	)
	for _, kind := range l.kinds {
		g.Go(func() error {
			res, err := l.Load(ctx, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[kind] = err
				return nil
			}
			report.Loaded = append(report.Loaded, kind)
			report.Records += len(res.Processes)
			report.Skipped += len(res.Errors)
			report.Unmapped += countUnmapped(res.Processes)
			return nil
		})
	}
	_ = g.Wait()

	l.logger.InfoContext(ctx, "collections loaded",
		"loaded", len(report.Loaded),
		"failed", len(report.Failed),
		"records", report.Records,
		"skipped", report.Skipped,
		"unmapped_status", report.Unmapped,
	)
	return report
}

// Load fetches and normalizes one kind and stores it in the tracker.
// Malformed records are skipped and reported; they never fail the load.
func (l *Loader) Load(ctx context.Context, kind domain.ProcessKind) (normalize.Result, error) {
	start := time.Now()
	raw, err := l.source.FetchCollection(ctx, kind)
	if err != nil {
		l.metrics.observeLoad(kind.String(), "error", start)
		l.tracker.Fail(kind, err)
		l.logger.WarnContext(ctx, "collection load failed",
			"kind", kind,
			"error", err,
		)
		l.publish(ctx, diagnostics.Event{
			Kind:        diagnostics.EventSourceFailed,
			ProcessKind: kind.String(),
			Message:     err.Error(),
		})
		return normalize.Result{}, fmt.Errorf("load %s: %w", kind, err)
	}

	res, err := normalize.Decode(kind, raw)
	if err != nil {
		l.metrics.observeLoad(kind.String(), "error", start)
		l.tracker.Fail(kind, err)
		return normalize.Result{}, err
	}

	for _, recErr := range res.Errors {
		l.logger.WarnContext(ctx, "skipping malformed record",
			"kind", kind,
			"index", recErr.Index,
			"error", recErr.Err,
		)
		l.publish(ctx, diagnostics.Event{
			Kind:        diagnostics.EventMalformedRecord,
			ProcessKind: kind.String(),
			RecordID:    recErr.ID,
			Index:       recErr.Index,
			Message:     recErr.Err.Error(),
		})
	}
	unmapped := 0
	for i, p := range res.Processes {
		if p.StatusKnown {
			continue
		}
		unmapped++
		l.logger.WarnContext(ctx, "unmapped status, falling back to pending",
			"kind", kind,
			"process_id", p.ID,
			"raw_status", p.RawStatus,
		)
		l.publish(ctx, diagnostics.Event{
			Kind:        diagnostics.EventUnmappedStatus,
			ProcessKind: kind.String(),
			RecordID:    p.ID.String(),
			Index:       i,
			RawStatus:   p.RawStatus,
		})
	}

	l.tracker.Set(kind, res.Processes)
	l.metrics.observeRecords(kind.String(), len(res.Processes), len(res.Errors), unmapped)
	l.metrics.observeLoad(kind.String(), "ok", start)
	return res, nil
}

// Run loads everything immediately and then every interval until ctx is
// done.
func (l *Loader) Run(ctx context.Context, interval time.Duration) error {
	l.LoadAll(ctx)
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.LoadAll(ctx)
		}
	}
}

func (l *Loader) publish(ctx context.Context, event diagnostics.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := l.diagnostics.Publish(ctx, event); err != nil {
		l.logger.WarnContext(ctx, "failed to publish diagnostics event",
			"event_kind", event.Kind,
			"error", err,
		)
	}
}

func countUnmapped(ps []models.NormalizedProcess) int {
	n := 0
	for _, p := range ps {
		if !p.StatusKnown {
			n++
		}
	}
	return n
}
