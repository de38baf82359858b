package core

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of pipeline spans.
const TracerName = "github.com/JonMunkholm/datacleaner/internal/core"

// ServiceName is reported as service.name on exported spans.
const ServiceName = "datacleaner"

func tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TracingOptions configures span export.
type TracingOptions struct {
	Enabled     bool
	SampleRatio float64
	Writer      io.Writer // defaults to stdout
}

// SetupTracing installs a global tracer provider that writes spans to
// opts.Writer as JSON. When tracing is disabled the global no-op provider
// stays in place. The returned function flushes and stops the provider.
func SetupTracing(opts TracingOptions) (func(context.Context) error, error) {
	if !opts.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporterOpts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if opts.Writer != nil {
		exporterOpts = append(exporterOpts, stdouttrace.WithWriter(opts.Writer))
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// startStep opens the span for one pipeline step of one file.
func startStep(ctx context.Context, step Step, file UploadedFile) (context.Context, trace.Span) {
	return tracer().Start(ctx, "pipeline."+string(step),
		trace.WithAttributes(
			attribute.String("file.id", string(file.ID)),
			attribute.String("file.name", file.Name),
		),
	)
}
