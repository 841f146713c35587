package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the theme directory.
// Tracks cache effectiveness and upstream fetch latency.
type Metrics struct {
	CacheHits     *prometheus.CounterVec
	CacheMisses   prometheus.Counter
	Fetches       *prometheus.CounterVec
	Coalesced     prometheus.Counter
	FetchDuration prometheus.Histogram
}

// New registers the theme directory metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_theme_cache_hits_total",
			Help: "Theme lookups served from cache, by cache level",
		}, []string{"level"}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "agora_theme_cache_misses_total",
			Help: "Theme lookups that required an upstream fetch",
		}),
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_theme_fetches_total",
			Help: "Upstream theme fetches, by outcome",
		}, []string{"outcome"}),
		Coalesced: f.NewCounter(prometheus.CounterOpts{
			Name: "agora_theme_fetches_coalesced_total",
			Help: "Theme lookups whose upstream fetch was shared between concurrent callers",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "agora_theme_fetch_duration_seconds",
			Help:    "Duration of upstream theme fetches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveHit records a cache hit at level ("memory" or "shared").
func (m *Metrics) ObserveHit(level string) {
	m.CacheHits.WithLabelValues(level).Inc()
}

func (m *Metrics) ObserveMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) ObserveCoalesced() {
	m.Coalesced.Inc()
}

// ObserveFetch records an upstream fetch outcome and its duration.
// Call with time.Now() taken before the fetch.
func (m *Metrics) ObserveFetch(outcome string, start time.Time) {
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(time.Since(start).Seconds())
}
