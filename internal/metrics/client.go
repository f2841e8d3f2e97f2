package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ClientMetrics defines the interface for recording client-side operation metrics.
// Implementations track outbound request counts/durations and reveal-workflow
// events (verifications issued or denied, reveals started and expired).
type ClientMetrics interface {
	// RecordRequest records one outbound HTTP request with its status code.
	// Path should be the route shape, not the concrete URL, to bound cardinality.
	RecordRequest(ctx context.Context, method, path string, status int, duration time.Duration)

	// RecordWorkflow records a reveal-workflow event.
	// Flow examples: "verify", "reveal", "poll"
	// Outcome examples: "issued", "denied", "expired", "dismissed"
	RecordWorkflow(ctx context.Context, flow, outcome string)
}

// clientMetrics implements ClientMetrics using OpenTelemetry metrics.
type clientMetrics struct {
	requestCounter  metric.Int64Counter
	durationHisto   metric.Float64Histogram
	workflowCounter metric.Int64Counter
}

// NewClientMetrics creates a new ClientMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names.
// Returns error if meters cannot be initialized.
func NewClientMetrics(meterProvider metric.MeterProvider, namespace string) (ClientMetrics, error) {
	meter := meterProvider.Meter(namespace)

	requestCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_requests_total", namespace),
		metric.WithDescription("Total number of outbound HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_request_duration_seconds", namespace),
		metric.WithDescription("Duration of outbound HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	workflowCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_workflow_events_total", namespace),
		metric.WithDescription("Total number of reveal-workflow events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow counter: %w", err)
	}

	return &clientMetrics{
		requestCounter:  requestCounter,
		durationHisto:   durationHisto,
		workflowCounter: workflowCounter,
	}, nil
}

// RecordRequest increments the request counter and records the duration with
// method, path, and status_code labels.
func (c *clientMetrics) RecordRequest(
	ctx context.Context,
	method, path string,
	status int,
	duration time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", status),
	)
	c.requestCounter.Add(ctx, 1, attrs)
	c.durationHisto.Record(ctx, duration.Seconds(), attrs)
}

// RecordWorkflow increments the workflow counter with flow and outcome labels.
func (c *clientMetrics) RecordWorkflow(ctx context.Context, flow, outcome string) {
	c.workflowCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("outcome", outcome),
		),
	)
}

// NoOpClientMetrics is a no-op implementation of ClientMetrics for when metrics are disabled.
type NoOpClientMetrics struct{}

// NewNoOpClientMetrics creates a no-op ClientMetrics implementation.
func NewNoOpClientMetrics() ClientMetrics {
	return &NoOpClientMetrics{}
}

// RecordRequest does nothing when metrics are disabled.
func (n *NoOpClientMetrics) RecordRequest(
	ctx context.Context,
	method, path string,
	status int,
	duration time.Duration,
) {
	// No-op
}

// RecordWorkflow does nothing when metrics are disabled.
func (n *NoOpClientMetrics) RecordWorkflow(ctx context.Context, flow, outcome string) {
	// No-op
}
