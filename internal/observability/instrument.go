// Package observability configures structured logging for the application,
// either to stdout or exported over OTLP.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const loggerName = "amelie-proxy"

// Instrument installs the process-wide default slog logger. The "text" and
// "json" formats log to stdout with trace correlation attributes; the
// "otlp-http", "otlp-grpc" and "otlp-stdout" formats export records through
// the OpenTelemetry log pipeline, configured via the standard OTEL_*
// environment variables.
//
// The returned function flushes and shuts down the log pipeline.
func Instrument(ctx context.Context, level slog.Level, logFormat string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	format := strings.ToLower(logFormat)
	switch format {
	case "text", "json":
		handler, err := newStdoutHandler(level, format)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(slog.New(newTraceContextHandler(handler)))
		return noop, nil
	case "otlp-http", "otlp-grpc", "otlp-stdout":
		provider, err := newLoggerProvider(ctx, level, format)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(slog.New(otelslog.NewHandler(loggerName, otelslog.WithLoggerProvider(provider))))
		return provider.Shutdown, nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: text, json, otlp-http, otlp-grpc, otlp-stdout)", logFormat)
	}
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch logFormat {
	case "json":
		return slog.NewJSONHandler(os.Stdout, opts), nil
	case "text":
		return slog.NewTextHandler(os.Stdout, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}
}

// newLoggerProvider builds the OTLP export pipeline: exporter, batching and
// severity filtering.
func newLoggerProvider(ctx context.Context, level slog.Level, format string) (*sdklog.LoggerProvider, error) {
	var exporter sdklog.Exporter
	var err error
	switch format {
	case "otlp-http":
		exporter, err = otlploghttp.New(ctx)
	case "otlp-grpc":
		exporter, err = otlploggrpc.New(ctx)
	case "otlp-stdout":
		exporter, err = stdoutlog.New()
	default:
		return nil, fmt.Errorf("unsupported exporter format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), minSeverity(level))
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

func minSeverity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
