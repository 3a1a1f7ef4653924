package grabber

import (
	"context"
	"time"

	"eamsgrab/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const report_metrics_init = "metrics.init"

const (
	outcomeSent    = "sent"
	outcomeBounced = "bounced"
	outcomeError   = "error"
	outcomeFailed  = "failed"
)

var meter = otel.Meter("eamsgrab/grabber")

type metrics struct {
	submissions metric.Int64Counter
	backoffs    metric.Int64Counter
	latencyMs   metric.Float64Histogram
}

func newMetrics(tel telemetry.API) metrics {
	submissions, err := meter.Int64Counter(
		"eams.submissions",
		metric.WithDescription("Submission attempts by outcome."),
	)
	if err != nil {
		tel.ReportBroken(report_metrics_init, err)
	}
	backoffs, err := meter.Int64Counter(
		"eams.backoffs",
		metric.WithDescription("Times the server asked to slow down."),
	)
	if err != nil {
		tel.ReportBroken(report_metrics_init, err)
	}
	latencyMs, err := meter.Float64Histogram(
		"eams.submission_latency_ms",
		metric.WithUnit("ms"),
	)
	if err != nil {
		tel.ReportBroken(report_metrics_init, err)
	}
	return metrics{
		submissions: submissions,
		backoffs:    backoffs,
		latencyMs:   latencyMs,
	}
}

func (m metrics) submission(ctx context.Context, outcome string) {
	if m.submissions == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m metrics) backoff(ctx context.Context) {
	if m.backoffs == nil {
		return
	}
	m.backoffs.Add(ctx, 1)
}

func (m metrics) latency(ctx context.Context, d time.Duration) {
	if m.latencyMs == nil {
		return
	}
	m.latencyMs.Record(ctx, float64(d)/float64(time.Millisecond))
}
