// Package observe wires OpenTelemetry metrics with a Prometheus exporter and
// provides the recording helpers the rest of the service uses. Until Init is
// called the global meter is a no-op, so library code can record
// unconditionally.
package observe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// instrumentationName identifies this service's meter and tracer.
const instrumentationName = "github.com/JMJuarez/modulo-pln-vf"

// Init installs a metrics pipeline that exposes everything recorded through
// this package in Prometheus format. It returns the scrape handler to mount
// (typically at /metrics) and a shutdown function that flushes the provider.
func Init(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("observe: create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("observe: build resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}
