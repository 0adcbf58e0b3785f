package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func installManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
	})

	ResetMetersForTest()
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	metrics := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}
	return metrics
}

func TestRecordRedactionMetrics(t *testing.T) {
	reader := installManualReader(t)
	ctx := context.Background()

	RecordRedactionMetrics(ctx, RedactionMetrics{
		PolicyContext: "general",
		SpansApplied:  3,
		Duration:      120 * time.Millisecond,
	})

	metrics := collectMetrics(t, reader)

	calls, ok := metrics["veil.redaction.calls_total"]
	if !ok {
		t.Fatalf("missing veil.redaction.calls_total metric")
	}
	callData, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type for calls metric")
	}
	if len(callData.DataPoints) != 1 {
		t.Fatalf("expected 1 datapoint, got %d", len(callData.DataPoints))
	}
	if callData.DataPoints[0].Value != 1 {
		t.Fatalf("expected calls count 1, got %d", callData.DataPoints[0].Value)
	}
	if value, ok := callData.DataPoints[0].Attributes.Value(attribute.Key("policy.context")); !ok || value.AsString() != "general" {
		t.Fatalf("expected policy.context attribute to be general, got %v", value)
	}

	spans, ok := metrics["veil.redaction.spans_total"]
	if !ok {
		t.Fatalf("missing veil.redaction.spans_total metric")
	}
	spanData := spans.Data.(metricdata.Sum[int64])
	if spanData.DataPoints[0].Value != 3 {
		t.Fatalf("expected spans count 3, got %d", spanData.DataPoints[0].Value)
	}

	hist, ok := metrics["veil.redaction.duration_ms"]
	if !ok {
		t.Fatalf("missing veil.redaction.duration_ms metric")
	}
	histData := hist.Data.(metricdata.Histogram[float64])
	if histData.DataPoints[0].Count != 1 {
		t.Fatalf("expected histogram count 1, got %d", histData.DataPoints[0].Count)
	}
	if histData.DataPoints[0].Sum != 120 {
		t.Fatalf("expected histogram sum 120, got %v", histData.DataPoints[0].Sum)
	}
}

func TestRecordRedactionMetrics_NoSpansSkipsSpanCounter(t *testing.T) {
	reader := installManualReader(t)

	RecordRedactionMetrics(context.Background(), RedactionMetrics{PolicyContext: "general"})

	metrics := collectMetrics(t, reader)
	if _, ok := metrics["veil.redaction.spans_total"]; ok {
		t.Fatalf("span counter should not record for zero spans")
	}
	if _, ok := metrics["veil.redaction.calls_total"]; !ok {
		t.Fatalf("call counter should still record")
	}
}

func TestRecordRestoreMetrics(t *testing.T) {
	reader := installManualReader(t)
	ctx := context.Background()

	RecordRestoreMetrics(ctx, RestoreOutcomeSuccess)
	RecordRestoreMetrics(ctx, RestoreOutcomeSuccess)
	RecordRestoreMetrics(ctx, RestoreOutcomePolicyViolation)

	metrics := collectMetrics(t, reader)
	restores, ok := metrics["veil.restore.calls_total"]
	if !ok {
		t.Fatalf("missing veil.restore.calls_total metric")
	}
	restoreData := restores.Data.(metricdata.Sum[int64])
	if len(restoreData.DataPoints) != 2 {
		t.Fatalf("expected 2 outcome series, got %d", len(restoreData.DataPoints))
	}

	byOutcome := map[string]int64{}
	for _, dp := range restoreData.DataPoints {
		if value, ok := dp.Attributes.Value(attribute.Key("outcome")); ok {
			byOutcome[value.AsString()] = dp.Value
		}
	}
	if byOutcome[RestoreOutcomeSuccess] != 2 {
		t.Fatalf("expected 2 successes, got %d", byOutcome[RestoreOutcomeSuccess])
	}
	if byOutcome[RestoreOutcomePolicyViolation] != 1 {
		t.Fatalf("expected 1 policy violation, got %d", byOutcome[RestoreOutcomePolicyViolation])
	}
}

func TestRecordAuditVerdict(t *testing.T) {
	reader := installManualReader(t)

	RecordAuditVerdict(context.Background(), AuditResultLeak)

	metrics := collectMetrics(t, reader)
	verdicts, ok := metrics["veil.audit.verdicts_total"]
	if !ok {
		t.Fatalf("missing veil.audit.verdicts_total metric")
	}
	verdictData := verdicts.Data.(metricdata.Sum[int64])
	if verdictData.DataPoints[0].Value != 1 {
		t.Fatalf("expected verdict count 1, got %d", verdictData.DataPoints[0].Value)
	}
	if value, ok := verdictData.DataPoints[0].Attributes.Value(attribute.Key("result")); !ok || value.AsString() != AuditResultLeak {
		t.Fatalf("expected result attribute leak, got %v", value)
	}
}
