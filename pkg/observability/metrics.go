package observability

import (
	"context"
	"time"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pageflow"

// Metrics holds the Prometheus collectors of the engine.
type Metrics struct {
	navigations        *prometheus.CounterVec
	transitionDuration prometheus.Histogram
	cacheLookups       *prometheus.CounterVec
	fetchDuration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Navigation intents by outcome.",
		}, []string{"outcome"}),
		transitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time from overlay shown to overlay hidden.",
			Buckets:   []float64{.05, .1, .25, .5, .75, 1, 1.5, 2.5, 5, 10},
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Fragment cache lookups by page and result.",
		}, []string{"page", "result"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Document fetch and extraction latency by page and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"page", "status"}),
	}
}

// Hooks returns lifecycle hooks feeding the navigation collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	count := func(outcome string) func(context.Context, *domain.NavigationEvent) {
		return func(context.Context, *domain.NavigationEvent) {
			m.navigations.WithLabelValues(outcome).Inc()
		}
	}
	return domain.LifecycleHooks{
		OnComplete: func(_ context.Context, ev *domain.NavigationEvent) {
			m.navigations.WithLabelValues("completed").Inc()
			m.transitionDuration.Observe(ev.Duration.Seconds())
		},
		OnFallback: func(_ context.Context, ev *domain.NavigationEvent) {
			m.navigations.WithLabelValues("fallback").Inc()
			if ev.Duration > 0 {
				m.transitionDuration.Observe(ev.Duration.Seconds())
			}
		},
		OnRejected: count("ignored"),
		OnRestore:  count("restored"),
	}
}

// ObserveLookup implements cache.Observer.
func (m *Metrics) ObserveLookup(page domain.PageID, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(string(page), result).Inc()
}

// ObserveFetch implements cache.Observer.
func (m *Metrics) ObserveFetch(page domain.PageID, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchDuration.WithLabelValues(string(page), status).Observe(elapsed.Seconds())
}
