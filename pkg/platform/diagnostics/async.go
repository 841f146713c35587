package diagnostics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"agora/pkg/platform/circuit"
)

// Metrics for the async publisher.
type Metrics struct {
	Published       *prometheus.CounterVec
	Dropped         *prometheus.CounterVec
	PublishFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_diagnostics_published_total",
			Help: "Diagnostics events delivered to the sink, by event kind",
		}, []string{"kind"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_diagnostics_dropped_total",
			Help: "Diagnostics events dropped, by reason",
		}, []string{"reason"}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "agora_diagnostics_publish_failures_total",
			Help: "Diagnostics events the sink rejected",
		}),
	}
}

// Async queues events and delivers them to a sink from a single
// goroutine, so ingestion never waits on the sink. Events are dropped
// when the queue is full or the sink's breaker is open.
type Async struct {
	sink    Publisher
	inbox   chan Event
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

type AsyncOption func(*Async)

func WithQueueSize(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.inbox = make(chan Event, n)
		}
	}
}

func WithBreaker(b *circuit.Breaker) AsyncOption {
	return func(a *Async) {
		a.breaker = b
	}
}

func WithLogger(logger *slog.Logger) AsyncOption {
	return func(a *Async) {
		a.logger = logger
	}
}

func WithMetrics(m *Metrics) AsyncOption {
	return func(a *Async) {
		a.metrics = m
	}
}

func NewAsync(sink Publisher, opts ...AsyncOption) *Async {
	a := &Async{
		sink:    sink,
		inbox:   make(chan Event, 256),
		breaker: circuit.New("diagnostics", circuit.WithFailureThreshold(5)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Publish enqueues event without blocking.
func (a *Async) Publish(ctx context.Context, event Event) error {
	select {
	case a.inbox <- event:
	default:
		a.drop("queue_full")
		a.logger.WarnContext(ctx, "diagnostics queue full, dropping event", "event_kind", event.Kind)
	}
	return nil
}

// Run delivers queued events until ctx is done, then drains what is
// already queued on a best-effort basis.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case event := <-a.inbox:
			a.deliver(ctx, event)
		}
	}
}

func (a *Async) drain(ctx context.Context) {
	for {
		select {
		case event := <-a.inbox:
			a.deliver(ctx, event)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, event Event) {
	if !a.breaker.Allow() {
		a.drop("circuit_open")
		return
	}
	if err := a.sink.Publish(ctx, event); err != nil {
		if a.metrics != nil {
			a.metrics.PublishFailures.Inc()
		}
		if _, change := a.breaker.RecordFailure(); change.Opened {
			a.logger.WarnContext(ctx, "diagnostics sink unhealthy, dropping events", "error", err)
		}
		return
	}
	if _, change := a.breaker.RecordSuccess(); change.Closed {
		a.logger.InfoContext(ctx, "diagnostics sink recovered")
	}
	if a.metrics != nil {
		a.metrics.Published.WithLabelValues(string(event.Kind)).Inc()
	}
}

func (a *Async) drop(reason string) {
	if a.metrics != nil {
		a.metrics.Dropped.WithLabelValues(reason).Inc()
	}
}
