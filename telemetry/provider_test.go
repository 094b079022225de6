package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func testConfig() *Config {
	return &Config{
		Enabled:     true,
		ServiceName: "msd-sim-test",
		Environment: "test",
		Protocol:    "grpc",
		Insecure:    true,
		Timeout:     time.Second,
		Traces:      TracesConfig{Enabled: true, Exporter: "none", Sampler: "always_on"},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none", Interval: 500 * time.Millisecond},
		Logs:        LogsConfig{Enabled: true, Exporter: "none"},
	}
}

func TestNewTracerProvider(t *testing.T) {
	_, err := NewTracerProvider(context.Background(), &Config{})
	require.ErrorIs(t, err, ErrDisabled)

	cfg := testConfig()
	cfg.Traces.Enabled = false
	_, err = NewTracerProvider(context.Background(), cfg)
	require.ErrorIs(t, err, ErrDisabled)

	tp, err := NewTracerProvider(context.Background(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewMeterAndLoggerProvider(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, mp)
	assert.NoError(t, mp.Shutdown(context.Background()))

	lp, err := NewLoggerProvider(context.Background(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, lp)
	assert.NoError(t, lp.Shutdown(context.Background()))

	cfg := testConfig()
	cfg.Logs.Enabled = false
	cfg.Metrics.Enabled = false
	_, err = NewLoggerProvider(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = NewMeterProvider(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestServiceNameRequired(t *testing.T) {
	cfg := testConfig()
	cfg.ServiceName = ""

	_, err := NewTracerProvider(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrServiceNameRequired)
}

func TestSetup(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		p, err := Setup(context.Background(), &Config{})
		require.NoError(t, err)
		assert.Nil(t, p.Tracer)
		assert.Nil(t, p.Meter)
		assert.Nil(t, p.Logger)
		assert.NoError(t, p.Shutdown(context.Background()))
	})

	t.Run("all signals", func(t *testing.T) {
		p, err := Setup(context.Background(), testConfig())
		require.NoError(t, err)
		assert.NotNil(t, p.Tracer)
		assert.NotNil(t, p.Meter)
		assert.NotNil(t, p.Logger)
		assert.NoError(t, p.Shutdown(context.Background()))
	})

	t.Run("traces only", func(t *testing.T) {
		cfg := testConfig()
		cfg.Metrics.Enabled = false
		cfg.Logs.Enabled = false

		p, err := Setup(context.Background(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, p.Tracer)
		assert.Nil(t, p.Meter)
		assert.Nil(t, p.Logger)
		assert.NoError(t, p.Shutdown(context.Background()))
	})
}

func TestBuildResourceAttributes(t *testing.T) {
	cfg := testConfig()
	cfg.Version = "1.2.3"
	cfg.ResourceAttributes = map[string]string{"site.id": "TAL01", "": "ignored"}

	res, err := buildResource(context.Background(), cfg)
	require.NoError(t, err)

	got := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "msd-sim-test", got["service.name"])
	assert.Equal(t, "1.2.3", got["service.version"])
	assert.Equal(t, "TAL01", got["site.id"])
	assert.NotContains(t, got, attribute.Key(""))
}

func TestBuildPropagator(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		fields []string
	}{
		{name: "default", value: "", fields: []string{"traceparent", "tracestate", "baggage"}},
		{name: "tracecontext only", value: "tracecontext", fields: []string{"traceparent", "tracestate"}},
		{name: "none", value: "none", fields: nil},
		{name: "unknown skipped", value: "b3, baggage", fields: []string{"baggage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPropagator(&Config{Propagators: tt.value})
			assert.ElementsMatch(t, tt.fields, p.Fields())
		})
	}
}
