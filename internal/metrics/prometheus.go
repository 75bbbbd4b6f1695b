package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink registers the dispatcher's counters/histograms against a
// private registry so /metrics can expose them without clashing with
// whatever else shares the process.
type PrometheusSink struct {
	Registry   *prometheus.Registry
	counters   *prometheus.CounterVec
	histograms *prometheus.HistogramVec
}

// NewPrometheusSink builds and registers the metric families.
func NewPrometheusSink() *PrometheusSink {
	registry := prometheus.NewRegistry()

	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ai_pr_reviewer",
		Name:      "events_total",
		Help:      "Count of dispatcher events by metric name.",
	}, []string{"metric", "trigger"})

	histograms := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ai_pr_reviewer",
		Name:      "duration_seconds",
		Help:      "Observed durations by metric name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"metric"})

	registry.MustRegister(counters, histograms)

	return &PrometheusSink{Registry: registry, counters: counters, histograms: histograms}
}

func (p *PrometheusSink) IncCounter(_ context.Context, name string, tags map[string]string) {
	p.counters.WithLabelValues(name, tags["trigger"]).Inc()
}

func (p *PrometheusSink) ObserveDuration(_ context.Context, name string, seconds float64, _ map[string]string) {
	p.histograms.WithLabelValues(name).Observe(seconds)
}
