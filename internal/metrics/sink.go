// Package metrics implements the fire-and-forget counters/histograms
// emitted by the dispatcher, exposed both as Prometheus series (for local
// and operational visibility) and mirrored to CloudWatch (matching the
// original system's production telemetry sink).
package metrics

import "context"

// Sink is the interface the dispatcher depends on; it never talks to
// Prometheus or CloudWatch directly.
type Sink interface {
	IncCounter(ctx context.Context, name string, tags map[string]string)
	ObserveDuration(ctx context.Context, name string, seconds float64, tags map[string]string)
}

// Known metric names, matching the original system's emitted series.
const (
	MetricReviewsSuccess       = "reviews_success"
	MetricReviewsFailed        = "reviews_failed"
	MetricReviewDurationMs     = "review_duration_ms"
	MetricIdempotencyConflicts = "idempotency_conflicts"
	MetricWebhookAccepted      = "webhook_accepted"
	MetricWebhookRejected      = "webhook_rejected"
)

// MultiSink fans a metric emission out to every wrapped Sink. A slow or
// failing sink never blocks the others since each Sink implementation is
// itself expected to be fire-and-forget.
type MultiSink struct {
	Sinks []Sink
}

func (m MultiSink) IncCounter(ctx context.Context, name string, tags map[string]string) {
	for _, s := range m.Sinks {
		s.IncCounter(ctx, name, tags)
	}
}

func (m MultiSink) ObserveDuration(ctx context.Context, name string, seconds float64, tags map[string]string) {
	for _, s := range m.Sinks {
		s.ObserveDuration(ctx, name, seconds, tags)
	}
}

// NoopSink discards everything; useful for tests and local dev.
type NoopSink struct{}

func (NoopSink) IncCounter(context.Context, string, map[string]string)            {}
func (NoopSink) ObserveDuration(context.Context, string, float64, map[string]string) {}
