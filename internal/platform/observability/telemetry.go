package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName scopes every tracer and meter created by the storefront.
const InstrumentationName = "github.com/Nixjoyer/Jump-Ship"

// Tracer returns the named tracer from the global provider. Without an installed
// SDK the global provider is a no-op.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(InstrumentationName + "/" + component)
}

// Meter returns the named meter from the global provider.
func Meter(component string) metric.Meter {
	return otel.GetMeterProvider().Meter(InstrumentationName + "/" + component)
}
