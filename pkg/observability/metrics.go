package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricInvocationsTotal    = "coderipple.specialist.invocations.total"
	metricInvocationDuration  = "coderipple.specialist.invocation.duration.seconds"
	metricInvocationErrors    = "coderipple.specialist.errors.total"
	metricInflightInvocations = "coderipple.specialist.inflight"

	attrSpecialist = "specialist"
	attrStatus     = "status"

	statusError = "error"
)

// durationBucketBoundaries covers 100ms to 300s: prose generation calls
// range from a couple of seconds to provider-side queueing stalls.
var durationBucketBoundaries = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// DispatchMetrics holds the OTel instruments for specialist invocations.
type DispatchMetrics struct {
	invocationsTotal   metric.Int64Counter
	invocationDuration metric.Float64Histogram
	errorsTotal        metric.Int64Counter
	inflight           metric.Int64UpDownCounter
}

// NewDispatchMetrics creates the dispatch instruments from the given meter.
func NewDispatchMetrics(mt metric.Meter) (*DispatchMetrics, error) {
	total, err := mt.Int64Counter(metricInvocationsTotal,
		metric.WithDescription("Total specialist invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInvocationsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricInvocationDuration,
		metric.WithDescription("Specialist invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInvocationDuration, err)
	}

	errorsTotal, err := mt.Int64Counter(metricInvocationErrors,
		metric.WithDescription("Total failed specialist invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInvocationErrors, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightInvocations,
		metric.WithDescription("Specialist invocations in flight"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightInvocations, err)
	}

	return &DispatchMetrics{
		invocationsTotal:   total,
		invocationDuration: duration,
		errorsTotal:        errorsTotal,
		inflight:           inflight,
	}, nil
}

// RecordInvocation records a completed specialist invocation. Nil receivers
// are tolerated so metrics stay optional in tests and dry runs.
func (dm *DispatchMetrics) RecordInvocation(ctx context.Context, specialist, status string, duration time.Duration) {
	if dm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrSpecialist, specialist),
		attribute.String(attrStatus, status),
	)

	dm.invocationsTotal.Add(ctx, 1, attrs)
	dm.invocationDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusError {
		dm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrSpecialist, specialist),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to
// decrement it. Nil receivers return a no-op.
func (dm *DispatchMetrics) TrackInflight(ctx context.Context, specialist string) func() {
	if dm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrSpecialist, specialist))
	dm.inflight.Add(ctx, 1, attrs)

	return func() {
		dm.inflight.Add(ctx, -1, attrs)
	}
}
