// Package telemetry wires OpenTelemetry around the suspension points
// spec §5 calls out: Suspend opens a span per call (index build,
// duplicate tests, resolution listing and commit), and Init installs a
// metric provider. No metric instruments are registered.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Init installs a real metric provider in place of the global no-op one.
// Call it once at process startup. It installs no tracer provider, so
// the spans Suspend opens go to the global tracer provider.
func Init() (shutdown func(context.Context) error, err error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", "nacsos-core")))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}

// Suspend wraps fn with a span named op, records fn's error on the span,
// and returns it wrapped as "component.op: err", mirroring the dolt
// storage backend's execContext/doltTracer pattern. It records no
// counters or durations.
func Suspend(ctx context.Context, component, op string, fn func(ctx context.Context) error) error {
	tracer := otel.Tracer("github.com/nacsos-data/nacsos-core/" + component)
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s.%s: %w", component, op, err)
	}
	return nil
}
