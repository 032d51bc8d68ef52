package internal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name of every span gitoff records.
const TracerName = "github.com/uggedal/gitoff"

// SetupTracing returns the tracer used for request and render spans and a
// shutdown function that flushes and releases the exporter. An empty path
// disables tracing. Spans are appended to the file at path as JSON.
func SetupTracing(path string) (trace.Tracer, func() error, error) {
	if path == "" {
		return noop.NewTracerProvider().Tracer(TracerName), func() error { return nil }, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace file %q: %w\nCheck that the directory exists and is writable", path, err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// A syncer exports each span as it ends; a CGI process may exit before
	// a batcher would flush.
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	shutdown := func() error {
		return errors.Join(provider.Shutdown(context.Background()), file.Close())
	}

	return provider.Tracer(TracerName), shutdown, nil
}
