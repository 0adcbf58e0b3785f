package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metersOnce           sync.Once
	metersInitErr        error
	redactionCallCounter metric.Int64Counter
	redactionSpanCounter metric.Int64Counter
	redactionLatency     metric.Float64Histogram
	restoreCallCounter   metric.Int64Counter
	auditVerdictCounter  metric.Int64Counter
)

// RedactionMetrics captures the fields recorded per redaction call.
type RedactionMetrics struct {
	PolicyContext string
	SpansApplied  int
	Duration      time.Duration
}

// RecordRedactionMetrics emits per-call redaction counters and latency
// through the process-wide meter provider. These mirror the Prometheus
// counters for deployments that collect over OTLP instead of scraping.
func RecordRedactionMetrics(ctx context.Context, m RedactionMetrics) {
	if err := ensureMeters(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("policy.context", m.PolicyContext),
	}

	redactionCallCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if m.SpansApplied > 0 {
		redactionSpanCounter.Add(ctx, int64(m.SpansApplied), metric.WithAttributes(attrs...))
	}
	if m.Duration > 0 {
		redactionLatency.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
}

// RecordRestoreMetrics emits one restoration attempt partitioned by outcome.
func RecordRestoreMetrics(ctx context.Context, outcome string) {
	if err := ensureMeters(); err != nil {
		return
	}
	restoreCallCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordAuditVerdict emits one processed leak-audit job by result.
func RecordAuditVerdict(ctx context.Context, result string) {
	if err := ensureMeters(); err != nil {
		return
	}
	auditVerdictCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

func ensureMeters() error {
	metersOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("veil.core")

		redactionCallCounter, metersInitErr = meter.Int64Counter(
			"veil.redaction.calls_total",
			metric.WithDescription("Redaction calls partitioned by policy context"),
			metric.WithUnit("{count}"),
		)
		if metersInitErr != nil {
			return
		}

		redactionSpanCounter, metersInitErr = meter.Int64Counter(
			"veil.redaction.spans_total",
			metric.WithDescription("Entity spans replaced with vault tokens"),
			metric.WithUnit("{count}"),
		)
		if metersInitErr != nil {
			return
		}

		redactionLatency, metersInitErr = meter.Float64Histogram(
			"veil.redaction.duration_ms",
			metric.WithDescription("Observed redaction call latency"),
			metric.WithUnit("ms"),
		)
		if metersInitErr != nil {
			return
		}

		restoreCallCounter, metersInitErr = meter.Int64Counter(
			"veil.restore.calls_total",
			metric.WithDescription("Restoration attempts partitioned by outcome"),
			metric.WithUnit("{count}"),
		)
		if metersInitErr != nil {
			return
		}

		auditVerdictCounter, metersInitErr = meter.Int64Counter(
			"veil.audit.verdicts_total",
			metric.WithDescription("Leak-audit jobs processed partitioned by result"),
			metric.WithUnit("{count}"),
		)
	})

	return metersInitErr
}
