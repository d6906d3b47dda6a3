package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter(instrumentationName)

	matchDuration   metric.Float64Histogram
	embedDuration   metric.Float64Histogram
	matchResults    metric.Int64Counter
	providerErrors  metric.Int64Counter
	cacheEvents     metric.Int64Counter
	requestDuration metric.Float64Histogram
)

func init() {
	matchDuration, _ = meter.Float64Histogram("frasero.match.duration",
		metric.WithDescription("End-to-end duration of one match request"),
		metric.WithUnit("s"))
	embedDuration, _ = meter.Float64Histogram("frasero.embed.duration",
		metric.WithDescription("Duration of one embedding backend call"),
		metric.WithUnit("s"))
	matchResults, _ = meter.Int64Counter("frasero.match.results",
		metric.WithDescription("Match outcomes by kind and group"))
	providerErrors, _ = meter.Int64Counter("frasero.provider.errors",
		metric.WithDescription("Failed embedding backend calls"))
	cacheEvents, _ = meter.Int64Counter("frasero.cache.events",
		metric.WithDescription("Vector cache hits, misses and write failures"))
	requestDuration, _ = meter.Float64Histogram("frasero.http.request.duration",
		metric.WithDescription("HTTP request duration by route and status"),
		metric.WithUnit("s"))
}

// RecordMatch records the outcome and duration of one match request.
func RecordMatch(ctx context.Context, outcome, group string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("group", group),
	)
	matchResults.Add(ctx, 1, attrs)
	matchDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordEmbed records one embedding backend call. Failed calls additionally
// increment the provider error counter.
func RecordEmbed(ctx context.Context, model string, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	embedDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		providerErrors.Add(ctx, 1, attrs)
	}
}

// RecordCacheEvent counts one vector cache event, e.g. "hit", "miss",
// "mismatch" or "save_error".
func RecordCacheEvent(ctx context.Context, event string) {
	cacheEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(ctx context.Context, route string, status int, d time.Duration) {
	requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}
