// Package tracing wires OpenTelemetry for the tierlist creation call. When
// tracing is disabled nothing is installed and otel's global no-op provider
// makes every span free.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"tiernow/internal/config"
)

// InstrumentationName identifies spans started by this module.
const InstrumentationName = "tiernow"

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Init installs a stdout-exporting tracer provider when cfg.Enabled is set.
// The returned shutdown func flushes pending spans and is always non-nil.
func Init(cfg config.TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	var w io.Writer = os.Stdout
	var closer io.Closer
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return noop, err
		}
		w, closer = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return noop, err
	}
	return InitWithExporter(cfg.ServiceName, exporter, closer)
}

// InitWithExporter installs a provider around any SpanExporter. Tests pass an
// in-memory exporter from the sdk's tracetest package.
func InitWithExporter(serviceName string, exporter sdktrace.SpanExporter, closer io.Closer) (func(context.Context) error, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return func(context.Context) error { return nil }, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			if cerr := closer.Close(); err == nil {
				err = cerr
			}
		}
		return err
	}, nil
}
