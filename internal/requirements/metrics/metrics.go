package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for checklist resolution and the catalog cache.
type Metrics struct {
	ResolveLatency prometheus.Histogram
	ResolvedItems  prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers metrics on reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ResolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "casedesk_checklist_resolve_duration_seconds",
			Help:    "Duration of checklist resolution including catalog load",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		ResolvedItems: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "casedesk_checklist_items",
			Help:    "Number of requirement items per resolved checklist",
			Buckets: []float64{0, 5, 10, 15, 20, 30, 50},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_catalog_cache_lookups_total",
			Help: "Requirement catalog cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"
	}
}

// ObserveResolve records one checklist resolution.
func (m *Metrics) ObserveResolve(d time.Duration, items int) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
		m.ResolvedItems.Observe(float64(items))
	}
}

// IncCacheLookup records a cache lookup outcome.
func (m *Metrics) IncCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
