// Grounded on the teacher's own utils/otel/provider_test.go contract
// (Config/ConfigFromEnv/InitProvider, also present verbatim in the sibling
// auth-hub service) — no implementation was ever checked in for either
// service, only this test. Renamed OTelConfig/OTelConfigFromEnv/
// InitOTelProvider here to avoid colliding with config.Config, since this
// package has no utils/otel subpackage of its own to carry the bare names.
package logger

import (
	"context"
	"errors"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OTelConfig is the process's OTLP export configuration.
type OTelConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Enabled      bool
}

// OTelConfigFromEnv reads OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT and
// OTEL_ENABLED, defaulting to this service's name, the local collector
// address, and enabled.
func OTelConfigFromEnv() OTelConfig {
	cfg := OTelConfig{
		ServiceName:  ServiceName,
		OTLPEndpoint: "http://localhost:4318",
		Enabled:      true,
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		cfg.Enabled = v != "false"
	}
	return cfg
}

// InitOTelProvider registers an OTLP/HTTP trace provider and log provider
// built against cfg.OTLPEndpoint as the process-wide defaults, returning a
// shutdown func that flushes and closes both exporters. When cfg.Enabled is
// false it registers nothing and returns a no-op shutdown, so logger.New's
// OTel fan-out handler has a real provider to bridge into exactly when the
// caller asked for one.
func InitOTelProvider(ctx context.Context, cfg OTelConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName))

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return noop, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noop, err
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	global.SetLoggerProvider(lp)

	return func(shutdownCtx context.Context) error {
		return errors.Join(tp.Shutdown(shutdownCtx), lp.Shutdown(shutdownCtx))
	}, nil
}
