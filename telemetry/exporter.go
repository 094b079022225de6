package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// target is the resolved destination of one signal's exporter.
type target struct {
	kind        string
	http        bool
	endpoint    string
	headers     map[string]string
	timeout     time.Duration
	gzip        bool
	insecure    bool
	caFile      string
	urlEndpoint bool
}

func resolveTarget(cfg *Config, kind, endpoint string) target {
	t := target{
		kind:     normalizeExporterType(kind),
		http:     cfg.usesHTTP(),
		endpoint: cfg.Endpoint,
		headers:  cfg.Headers,
		timeout:  normalizeDuration(cfg.Timeout),
		gzip:     cfg.Compression == "gzip",
		insecure: cfg.Insecure,
		caFile:   cfg.CAFile,
	}
	if endpoint != "" {
		t.endpoint = endpoint
	}
	if t.endpoint == "" {
		t.endpoint = "localhost:4317"
	}
	if u, err := url.Parse(t.endpoint); err == nil && isHTTPScheme(u.Scheme) {
		t.urlEndpoint = true
	}

	return t
}

// grpcCredentials returns TLS credentials for a secure gRPC exporter.
func (t target) grpcCredentials() (credentials.TransportCredentials, error) {
	if t.caFile == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	creds, err := credentials.NewClientTLSFromFile(t.caFile, "")
	if err != nil {
		return nil, fmt.Errorf("load collector CA %q: %w", t.caFile, err)
	}

	return creds, nil
}

type nopSpanExporter struct{}

func (nopSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (nopSpanExporter) Shutdown(context.Context) error                           { return nil }

func buildTraceExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	t := resolveTarget(cfg, cfg.Traces.Exporter, cfg.Traces.Endpoint)

	switch t.kind {
	case "console":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		return nopSpanExporter{}, nil
	}

	if t.http {
		opts := httpOptions(t,
			otlptracehttp.WithEndpoint,
			otlptracehttp.WithEndpointURL,
			otlptracehttp.WithHeaders,
			otlptracehttp.WithTimeout,
			otlptracehttp.WithInsecure,
			func() otlptracehttp.Option { return otlptracehttp.WithCompression(otlptracehttp.GzipCompression) },
		)

		return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	}

	opts, err := grpcOptions(t,
		otlptracegrpc.WithEndpoint,
		otlptracegrpc.WithHeaders,
		otlptracegrpc.WithTimeout,
		otlptracegrpc.WithInsecure,
		otlptracegrpc.WithTLSCredentials,
		func() otlptracegrpc.Option { return otlptracegrpc.WithCompressor("gzip") },
	)
	if err != nil {
		return nil, err
	}

	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

type nopLogExporter struct{}

func (nopLogExporter) Export(context.Context, []sdklog.Record) error { return nil }
func (nopLogExporter) Shutdown(context.Context) error                { return nil }
func (nopLogExporter) ForceFlush(context.Context) error              { return nil }

func buildLogExporter(ctx context.Context, cfg *Config) (sdklog.Exporter, error) {
	t := resolveTarget(cfg, cfg.Logs.Exporter, cfg.Logs.Endpoint)

	switch t.kind {
	case "console":
		return stdoutlog.New(stdoutlog.WithPrettyPrint())
	case "none":
		return nopLogExporter{}, nil
	}

	if t.http {
		opts := httpOptions(t,
			otlploghttp.WithEndpoint,
			otlploghttp.WithEndpointURL,
			otlploghttp.WithHeaders,
			otlploghttp.WithTimeout,
			otlploghttp.WithInsecure,
			func() otlploghttp.Option { return otlploghttp.WithCompression(otlploghttp.GzipCompression) },
		)

		return otlploghttp.New(ctx, opts...)
	}

	opts, err := grpcOptions(t,
		otlploggrpc.WithEndpoint,
		otlploggrpc.WithHeaders,
		otlploggrpc.WithTimeout,
		otlploggrpc.WithInsecure,
		otlploggrpc.WithTLSCredentials,
		func() otlploggrpc.Option { return otlploggrpc.WithCompressor("gzip") },
	)
	if err != nil {
		return nil, err
	}

	return otlploggrpc.New(ctx, opts...)
}

type nopMetricExporter struct{}

func (nopMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }
func (nopMetricExporter) ForceFlush(context.Context) error                          { return nil }
func (nopMetricExporter) Shutdown(context.Context) error                            { return nil }

func (nopMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (nopMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func buildMetricExporter(ctx context.Context, cfg *Config) (sdkmetric.Exporter, error) {
	t := resolveTarget(cfg, cfg.Metrics.Exporter, cfg.Metrics.Endpoint)

	switch t.kind {
	case "console":
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	case "none":
		return nopMetricExporter{}, nil
	}

	if t.http {
		opts := httpOptions(t,
			otlpmetrichttp.WithEndpoint,
			otlpmetrichttp.WithEndpointURL,
			otlpmetrichttp.WithHeaders,
			otlpmetrichttp.WithTimeout,
			otlpmetrichttp.WithInsecure,
			func() otlpmetrichttp.Option { return otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression) },
		)

		return otlpmetrichttp.New(ctx, opts...)
	}

	opts, err := grpcOptions(t,
		otlpmetricgrpc.WithEndpoint,
		otlpmetricgrpc.WithHeaders,
		otlpmetricgrpc.WithTimeout,
		otlpmetricgrpc.WithInsecure,
		otlpmetricgrpc.WithTLSCredentials,
		func() otlpmetricgrpc.Option { return otlpmetricgrpc.WithCompressor("gzip") },
	)
	if err != nil {
		return nil, err
	}

	return otlpmetricgrpc.New(ctx, opts...)
}

// normalizeExporterType folds aliases: "stdout" is "console", "nop"/"noop" are "none".
func normalizeExporterType(value string) string {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "":
		return "otlp"
	case "stdout":
		return "console"
	case "nop", "noop":
		return "none"
	default:
		return v
	}
}

// normalizeDuration reads sub-millisecond values as milliseconds, which is how
// numeric OTEL_* timeouts arrive from the environment.
func normalizeDuration(value time.Duration) time.Duration {
	if value > 0 && value < time.Millisecond {
		//nolint:durationcheck // numeric env values are milliseconds
		return value * time.Millisecond
	}

	return value
}

func isHTTPScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

func httpOptions[T any](
	t target,
	withEndpoint func(string) T,
	withEndpointURL func(string) T,
	withHeaders func(map[string]string) T,
	withTimeout func(time.Duration) T,
	withInsecure func() T,
	withGzip func() T,
) []T {
	var opts []T
	if t.urlEndpoint {
		opts = append(opts, withEndpointURL(t.endpoint))
	} else {
		opts = append(opts, withEndpoint(t.endpoint))
	}
	if len(t.headers) > 0 {
		opts = append(opts, withHeaders(t.headers))
	}
	if t.timeout > 0 {
		opts = append(opts, withTimeout(t.timeout))
	}
	if t.insecure {
		opts = append(opts, withInsecure())
	}
	if t.gzip {
		opts = append(opts, withGzip())
	}

	return opts
}

func grpcOptions[T any](
	t target,
	withEndpoint func(string) T,
	withHeaders func(map[string]string) T,
	withTimeout func(time.Duration) T,
	withInsecure func() T,
	withTLS func(credentials.TransportCredentials) T,
	withGzip func() T,
) ([]T, error) {
	opts := []T{withEndpoint(t.endpoint)}
	if len(t.headers) > 0 {
		opts = append(opts, withHeaders(t.headers))
	}
	if t.timeout > 0 {
		opts = append(opts, withTimeout(t.timeout))
	}
	if t.insecure {
		opts = append(opts, withInsecure())
	} else {
		creds, err := t.grpcCredentials()
		if err != nil {
			return nil, err
		}
		opts = append(opts, withTLS(creds))
	}
	if t.gzip {
		opts = append(opts, withGzip())
	}

	return opts, nil
}
