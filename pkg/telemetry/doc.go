// Package telemetry wires OpenTelemetry tracing and Prometheus metrics for
// the veil redaction engine.
//
// It centralises tracer provider setup and exposes the metric set operators
// use to watch the redact/restore/audit loops: redaction volume, detector
// confidence distribution, leak detections, and audit queue health.
package telemetry
