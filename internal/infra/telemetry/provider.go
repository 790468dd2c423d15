// Package telemetry wires OTLP export of traces, logs and metrics for news-chat.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"news-chat/internal/infra/config"
)

// ShutdownFunc flushes and stops whatever Setup installed.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs the global tracer, logger and meter providers. When export is
// disabled it installs nothing and returns a no-op shutdown. A provider that
// fails to start shuts down the ones already running.
func Setup(ctx context.Context, tc config.TelemetryConfig, env string) (ShutdownFunc, error) {
	if !tc.Enabled {
		return noop, nil
	}

	res, err := newResource(ctx, tc.ServiceName, env)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	var started []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(started) - 1; i >= 0; i-- {
			errs = append(errs, started[i](ctx))
		}
		return errors.Join(errs...)
	}

	tp, err := newTracerProvider(ctx, tc, res)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	started = append(started, tp.Shutdown)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	lp, err := newLoggerProvider(ctx, tc, res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("log exporter: %w", err), shutdown(ctx))
	}
	started = append(started, lp.Shutdown)
	global.SetLoggerProvider(lp)

	mp, err := newMeterProvider(ctx, tc, res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("metric exporter: %w", err), shutdown(ctx))
	}
	started = append(started, mp.Shutdown)
	otel.SetMeterProvider(mp)

	return shutdown, nil
}

func newResource(ctx context.Context, serviceName, env string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(buildVersion()),
			semconv.DeploymentEnvironment(env),
		),
		resource.WithHost(),
	)
}

// buildVersion is the main module version stamped by the go tool, "(devel)" for local builds.
func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}

// The exporters take full signal URLs; an http:// endpoint implies plaintext.

func newTracerProvider(ctx context.Context, tc config.TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(tc.Endpoint+"/v1/traces"))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tc.SampleRatio))),
	), nil
}

func newLoggerProvider(ctx context.Context, tc config.TelemetryConfig, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	exp, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(tc.Endpoint+"/v1/logs"))
	if err != nil {
		return nil, err
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, tc config.TelemetryConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(tc.Endpoint+"/v1/metrics"))
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	), nil
}
