package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/credentials"
)

type opt struct {
	kind string
	val  string
}

func TestNormalizeExporterType(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "", want: "otlp"},
		{input: "stdout", want: "console"},
		{input: "noop", want: "none"},
		{input: "nop", want: "none"},
		{input: " OTLP ", want: "otlp"},
		{input: "console", want: "console"},
	}

	for _, tt := range cases {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeExporterType(tt.input))
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, normalizeDuration(500))
	assert.Equal(t, 2*time.Second, normalizeDuration(2*time.Second))
	assert.Equal(t, time.Duration(0), normalizeDuration(0))
}

func TestResolveTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoint = "collector:4317"
	cfg.Compression = "gzip"

	tgt := resolveTarget(cfg, "OTLP", "")
	assert.Equal(t, "otlp", tgt.kind)
	assert.Equal(t, "collector:4317", tgt.endpoint)
	assert.False(t, tgt.http)
	assert.False(t, tgt.urlEndpoint)
	assert.True(t, tgt.gzip)

	cfg.Protocol = "http/protobuf"
	tgt = resolveTarget(cfg, "otlp", "https://collector:4318/v1/traces")
	assert.True(t, tgt.http)
	assert.True(t, tgt.urlEndpoint)
	assert.Equal(t, "https://collector:4318/v1/traces", tgt.endpoint)
}

func TestHTTPOptions(t *testing.T) {
	tgt := target{
		endpoint:    "http://localhost:4318/v1/logs",
		urlEndpoint: true,
		headers:     map[string]string{"k": "v"},
		timeout:     5 * time.Second,
		insecure:    true,
		gzip:        true,
	}

	opts := httpOptions(tgt,
		func(v string) opt { return opt{"endpoint", v} },
		func(v string) opt { return opt{"url", v} },
		func(map[string]string) opt { return opt{kind: "headers"} },
		func(time.Duration) opt { return opt{kind: "timeout"} },
		func() opt { return opt{kind: "insecure"} },
		func() opt { return opt{kind: "gzip"} },
	)

	require.Len(t, opts, 5)
	assert.Equal(t, opt{"url", "http://localhost:4318/v1/logs"}, opts[0])
	assert.Equal(t, "gzip", opts[4].kind)
}

func TestGRPCOptions(t *testing.T) {
	build := func(tgt target) ([]opt, error) {
		return grpcOptions(tgt,
			func(v string) opt { return opt{"endpoint", v} },
			func(map[string]string) opt { return opt{kind: "headers"} },
			func(time.Duration) opt { return opt{kind: "timeout"} },
			func() opt { return opt{kind: "insecure"} },
			func(credentials.TransportCredentials) opt { return opt{kind: "tls"} },
			func() opt { return opt{kind: "gzip"} },
		)
	}

	opts, err := build(target{endpoint: "localhost:4317", insecure: true})
	require.NoError(t, err)
	assert.Equal(t, []opt{{"endpoint", "localhost:4317"}, {kind: "insecure"}}, opts)

	opts, err = build(target{endpoint: "localhost:4317"})
	require.NoError(t, err)
	assert.Equal(t, "tls", opts[len(opts)-1].kind)

	_, err = build(target{endpoint: "localhost:4317", caFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)
}

func TestBuildExporters(t *testing.T) {
	cfg := testConfig()
	cfg.Traces.Exporter = "console"
	cfg.Metrics.Exporter = "stdout"
	cfg.Logs.Exporter = "nop"

	te, err := buildTraceExporter(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, te)

	me, err := buildMetricExporter(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, me)

	le, err := buildLogExporter(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, nopLogExporter{}, le)
}
