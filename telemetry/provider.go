package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	// ErrDisabled is returned by the provider builders when the signal is turned off.
	ErrDisabled = errors.New("telemetry: disabled")

	// ErrServiceNameRequired is returned when telemetry is enabled without a service name.
	ErrServiceNameRequired = errors.New("telemetry: service name is required")
)

// Providers bundles the SDK providers created by Setup. Fields are nil for
// signals that are disabled.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
	Logger *sdklog.LoggerProvider
}

// Setup builds every enabled provider and registers it globally along with
// the configured propagator. A disabled Config yields empty Providers and no error.
func Setup(ctx context.Context, cfg *Config) (*Providers, error) {
	p := &Providers{}
	if cfg == nil || !cfg.Enabled {
		return p, nil
	}

	otel.SetTextMapPropagator(buildPropagator(cfg))

	var err error
	if p.Tracer, err = NewTracerProvider(ctx, cfg); err != nil && !errors.Is(err, ErrDisabled) {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, cfg); err != nil && !errors.Is(err, ErrDisabled) {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Logger, err = NewLoggerProvider(ctx, cfg); err != nil && !errors.Is(err, ErrDisabled) {
		_ = p.Shutdown(ctx)
		return nil, err
	}

	return p, nil
}

// Shutdown flushes and stops every non-nil provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Logger != nil {
		errs = append(errs, p.Logger.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// NewTracerProvider builds a batching TracerProvider and sets it as the global one.
func NewTracerProvider(ctx context.Context, cfg *Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled || !cfg.Traces.Enabled {
		return nil, ErrDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildTraceExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(buildSampler(cfg.Traces.Sampler, cfg.Traces.SamplerArg)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp, nil
}

// NewMeterProvider builds a MeterProvider with a periodic reader and sets it as the global one.
func NewMeterProvider(ctx context.Context, cfg *Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled || !cfg.Metrics.Enabled {
		return nil, ErrDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build metric exporter: %w", err)
	}

	interval := normalizeDuration(cfg.Metrics.Interval)
	if interval <= 0 {
		interval = defaultMetricInterval
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)

	return mp, nil
}

// NewLoggerProvider builds a batching LoggerProvider and sets it as the global one.
// Pair it with NewOTelCore to ship zap entries.
func NewLoggerProvider(ctx context.Context, cfg *Config) (*sdklog.LoggerProvider, error) {
	if !cfg.Enabled || !cfg.Logs.Enabled {
		return nil, ErrDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildLogExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp)

	return lp, nil
}

func buildResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	if cfg.ServiceName == "" {
		return nil, ErrServiceNameRequired
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	for k, v := range cfg.ResourceAttributes {
		if k != "" {
			attrs = append(attrs, attribute.String(k, v))
		}
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	return res, nil
}

func buildSampler(name string, arg float64) sdktrace.Sampler {
	switch name {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(arg)
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(arg))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// buildPropagator honours "tracecontext" and "baggage"; other names are
// reported through otel.Handle and skipped.
func buildPropagator(cfg *Config) propagation.TextMapPropagator {
	var props []propagation.TextMapPropagator
	for _, name := range cfg.propagatorNames() {
		switch name {
		case "tracecontext":
			props = append(props, propagation.TraceContext{})
		case "baggage":
			props = append(props, propagation.Baggage{})
		case "none":
		default:
			otel.Handle(fmt.Errorf("telemetry: unsupported propagator %q ignored", name))
		}
	}

	return propagation.NewCompositeTextMapPropagator(props...)
}
