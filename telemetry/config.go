//revive:disable:line-length-limit
package telemetry

import (
	"slices"
	"strings"
	"time"
)

// Config configures the simulator's own OpenTelemetry signals.
// Environment variable names follow the OTel SDK conventions.
type Config struct {
	// Enabled turns self-observability on. When false every provider builder returns ErrDisabled.
	Enabled bool `yaml:"enabled" env:"MSD_TELEMETRY_ENABLED" default:"false"`

	// ServiceName identifies the simulator in exported telemetry.
	ServiceName string `yaml:"serviceName" env:"OTEL_SERVICE_NAME" default:"msd-sim"`

	// Version is reported as service.version.
	Version string `yaml:"version" env:"OTEL_SERVICE_VERSION"`

	// Environment is reported as deployment.environment.
	Environment string `yaml:"environment" env:"OTEL_DEPLOYMENT_ENVIRONMENT" default:"development"`

	// ResourceAttributes are added to the resource of every signal.
	ResourceAttributes map[string]string `yaml:"resourceAttributes,omitempty" env:"OTEL_RESOURCE_ATTRIBUTES"`

	// Endpoint is the collector address shared by all signals.
	//   - grpc: "host:port", no scheme.
	//   - http: host:port or a full URL with scheme.
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// Protocol is one of "grpc", "http/protobuf" or "http".
	Protocol string `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc" validate:"oneof=grpc http/protobuf http"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`

	// CAFile is a PEM bundle used to verify the collector when Insecure is false.
	CAFile string `yaml:"caFile,omitempty" env:"OTEL_EXPORTER_OTLP_CERTIFICATE"`

	// Headers are sent with every export request. Do not log them.
	Headers map[string]string `yaml:"headers,omitempty" env:"OTEL_EXPORTER_OTLP_HEADERS"`

	// Timeout bounds a single export.
	Timeout time.Duration `yaml:"timeout" env:"OTEL_EXPORTER_OTLP_TIMEOUT" default:"10s" validate:"gte=0"`

	// Compression is "gzip" or "none".
	Compression string `yaml:"compression,omitempty" env:"OTEL_EXPORTER_OTLP_COMPRESSION" validate:"omitempty,oneof=gzip none"`

	// Propagators is a comma separated OTEL_PROPAGATORS list.
	Propagators string `yaml:"propagators" env:"OTEL_PROPAGATORS" default:"tracecontext,baggage"`

	Traces  TracesConfig  `yaml:"traces"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logs    LogsConfig    `yaml:"logs"`
}

// TracesConfig configures span export.
type TracesConfig struct {
	Enabled  bool   `yaml:"enabled" default:"true"`
	Exporter string `yaml:"exporter" env:"OTEL_TRACES_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	// Sampler accepts the OTEL_TRACES_SAMPLER names.
	Sampler    string  `yaml:"sampler" env:"OTEL_TRACES_SAMPLER" default:"parentbased_always_on" validate:"oneof=always_on always_off traceidratio parentbased_always_on parentbased_always_off parentbased_traceidratio"`
	SamplerArg float64 `yaml:"samplerArg" env:"OTEL_TRACES_SAMPLER_ARG" default:"1.0" validate:"gte=0,lte=1"`
}

// MetricsConfig configures metric export. Metrics are opt-in.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" default:"false"`
	Exporter string        `yaml:"exporter" env:"OTEL_METRICS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`
	Endpoint string        `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`
	Interval time.Duration `yaml:"interval" env:"OTEL_METRIC_EXPORT_INTERVAL" default:"60s" validate:"gte=0"`
}

// LogsConfig configures export of zap entries through the OTel log bridge. Logs are opt-in.
type LogsConfig struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Exporter string `yaml:"exporter" env:"OTEL_LOGS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"`
}

func (c *Config) usesHTTP() bool {
	return c.Protocol == "http" || c.Protocol == "http/protobuf"
}

// propagatorNames splits Propagators into trimmed, non-empty names.
func (c *Config) propagatorNames() []string {
	if c.Propagators == "" {
		return []string{"tracecontext", "baggage"}
	}

	var names []string
	for p := range strings.SplitSeq(c.Propagators, ",") {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}

	return names
}

func (c *Config) hasPropagator(name string) bool {
	return slices.Contains(c.propagatorNames(), name)
}
