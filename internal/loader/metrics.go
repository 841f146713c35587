package loader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks collection loads and record quality.
type Metrics struct {
	Loads           *prometheus.CounterVec
	Records         *prometheus.CounterVec
	SkippedRecords  *prometheus.CounterVec
	UnmappedStatus  *prometheus.CounterVec
	LoadDuration    *prometheus.HistogramVec
	LastLoadSuccess *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_loader_loads_total",
			Help: "Collection loads, by process kind and outcome",
		}, []string{"kind", "outcome"}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_loader_records_total",
			Help: "Records normalized, by process kind",
		}, []string{"kind"}),
		SkippedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_loader_skipped_records_total",
			Help: "Malformed records skipped, by process kind",
		}, []string{"kind"}),
		UnmappedStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_loader_unmapped_status_total",
			Help: "Records whose status fell back to pending, by process kind",
		}, []string{"kind"}),
		LoadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agora_loader_load_duration_seconds",
			Help:    "Time to fetch and normalize one collection",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		LastLoadSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agora_loader_last_success_timestamp_seconds",
			Help: "Unix time of the last successful load, by process kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observeLoad(kind, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(kind, outcome).Inc()
	m.LoadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if outcome == "ok" {
		m.LastLoadSuccess.WithLabelValues(kind).SetToCurrentTime()
	}
}

func (m *Metrics) observeRecords(kind string, loaded, skipped, unmapped int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(kind).Add(float64(loaded))
	m.SkippedRecords.WithLabelValues(kind).Add(float64(skipped))
	m.UnmappedStatus.WithLabelValues(kind).Add(float64(unmapped))
}
