// Package observe provides application-wide observability primitives for
// callswarm: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all callswarm metrics.
const meterName = "github.com/MrWong99/callswarm"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ProviderCallDuration tracks one provider call's end-to-end latency,
	// from dial (or simulation start) to a recorded outcome.
	ProviderCallDuration metric.Float64Histogram

	// BookingCallDuration tracks one booking-phase confirmation callback's
	// latency.
	BookingCallDuration metric.Float64Histogram

	// ToolExecutionDuration tracks dispatcher tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// CampaignDuration tracks a campaign's total time from creation to a
	// terminal status (booked/completed/failed).
	CampaignDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderCalls counts provider calls by outcome. Use with attributes:
	//   attribute.String("call_mode", ...), attribute.String("outcome", ...)
	ProviderCalls metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// BookingAttempts counts booking-phase confirmation attempts by outcome.
	BookingAttempts metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts unexpected driver failures by call mode.
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveCampaigns tracks the number of campaigns currently running.
	ActiveCampaigns metric.Int64UpDownCounter

	// ActiveCalls tracks the number of provider calls currently in flight
	// across all campaigns.
	ActiveCalls metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds), wide
// enough to cover both dispatcher tool calls (sub-second) and full provider
// calls (tens of seconds).
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ProviderCallDuration, err = m.Float64Histogram("callswarm.provider_call.duration",
		metric.WithDescription("Latency of a single provider call, from dial/simulation start to outcome."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BookingCallDuration, err = m.Float64Histogram("callswarm.booking_call.duration",
		metric.WithDescription("Latency of a single booking-phase confirmation callback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("callswarm.tool_execution.duration",
		metric.WithDescription("Latency of dispatcher tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CampaignDuration, err = m.Float64Histogram("callswarm.campaign.duration",
		metric.WithDescription("Total campaign duration from creation to a terminal status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderCalls, err = m.Int64Counter("callswarm.provider_calls",
		metric.WithDescription("Total provider calls by call mode and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("callswarm.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.BookingAttempts, err = m.Int64Counter("callswarm.booking_attempts",
		metric.WithDescription("Total booking confirmation attempts by outcome."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("callswarm.provider.errors",
		metric.WithDescription("Total unexpected provider call driver failures by call mode."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveCampaigns, err = m.Int64UpDownCounter("callswarm.active_campaigns",
		metric.WithDescription("Number of campaigns currently running."),
	); err != nil {
		return nil, err
	}
	if met.ActiveCalls, err = m.Int64UpDownCounter("callswarm.active_calls",
		metric.WithDescription("Number of provider calls currently in flight across all campaigns."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("callswarm.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderCall is a convenience method that records a provider call
// counter increment with the standard attribute set.
func (m *Metrics) RecordProviderCall(ctx context.Context, callMode, outcome string) {
	m.ProviderCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("call_mode", callMode),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordBookingAttempt is a convenience method that records a booking
// confirmation attempt counter increment.
func (m *Metrics) RecordBookingAttempt(ctx context.Context, outcome string) {
	m.BookingAttempts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, callMode string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("call_mode", callMode)),
	)
}
