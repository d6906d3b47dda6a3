package observe

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the service tracer. Without a configured trace provider
// the returned tracer is a no-op, so spans can be started unconditionally.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
