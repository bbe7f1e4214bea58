package config

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/oteladapters"
	"github.com/bookdesk/bookdesk/eventstore/promadapters"
)

const instrumentationName = "github.com/bookdesk/bookdesk"

var ErrTelemetrySetupFailed = errors.New("telemetry setup failed")

// Observers are the collectors handed to the engine and the handlers.
//
// Without an OTLP endpoint metrics go to the Prometheus registry and there is no tracing.
// With one, traces, metrics and logs are exported over OTLP gRPC, and the registry
// only carries the Go runtime and process collectors.
type Observers struct {
	Registry *prometheus.Registry
	Metrics  eventstore.MetricsCollector
	Tracing  eventstore.TracingCollector
	// Logger writes to the process log, and to OTLP with trace correlation when telemetry is on.
	Logger *slog.Logger

	shutdown []func(context.Context) error
}

// NewObservers sets up the collectors. base is the process logger from NewLogger.
func NewObservers(ctx context.Context, cfg Telemetry, base *slog.Logger) (*Observers, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := &Observers{Registry: registry, Logger: base}

	if cfg.OTLPEndpoint == "" {
		obs.Metrics = promadapters.NewMetricsCollector(registry, promadapters.WithNamespace(cfg.MetricsNamespace))
		return obs, nil
	}

	if err := obs.startOTLP(ctx, cfg); err != nil {
		_ = obs.Shutdown(ctx)
		return nil, errors.Join(ErrTelemetrySetupFailed, err)
	}

	return obs, nil
}

func (o *Observers) startOTLP(ctx context.Context, cfg Telemetry) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)),
	)
	if err != nil {
		return err
	}

	traceOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOptions := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		traceOptions = append(traceOptions, otlptracegrpc.WithInsecure())
		metricOptions = append(metricOptions, otlpmetricgrpc.WithInsecure())
		logOptions = append(logOptions, otlploggrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOptions...)
	if err != nil {
		return err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	o.shutdown = append(o.shutdown, tracerProvider.Shutdown)

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions...)
	if err != nil {
		return err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	o.shutdown = append(o.shutdown, meterProvider.Shutdown)

	logExporter, err := otlploggrpc.New(ctx, logOptions...)
	if err != nil {
		return err
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	o.shutdown = append(o.shutdown, loggerProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	o.Tracing = oteladapters.NewTracingCollector(tracerProvider.Tracer(instrumentationName))
	o.Metrics = oteladapters.NewMetricsCollector(meterProvider.Meter(instrumentationName))

	bridge := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(loggerProvider))
	o.Logger = slog.New(newFanoutHandler(o.Logger.Handler(), bridge))

	return nil
}

// Shutdown flushes and stops the OTLP providers. It is a no-op without telemetry.
func (o *Observers) Shutdown(ctx context.Context) error {
	var err error

	for i := len(o.shutdown) - 1; i >= 0; i-- {
		err = errors.Join(err, o.shutdown[i](ctx))
	}

	o.shutdown = nil

	return err
}
