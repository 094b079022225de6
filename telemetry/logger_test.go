package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingExporter keeps every exported log record.
type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}

	return nil
}

func (*recordingExporter) Shutdown(context.Context) error   { return nil }
func (*recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) Records() []sdklog.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]sdklog.Record(nil), e.records...)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "DEBUG", format: "console"},
		{name: "bad level", level: "loud", format: "json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format, "msd-sim")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestTee(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.NewNop()

	assert.Same(t, base, Tee(base, nil))

	logger := Tee(base, core)
	logger.Info("published", zap.String("scenario", "mbb"))
	logger.Debug("dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "published", logs.All()[0].Message)
}

func TestOTelCoreEmitsRecords(t *testing.T) {
	exp := &recordingExporter{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	logger := zap.New(NewOTelCore(lp, zapcore.InfoLevel)).With(zap.String("scenario", "cebit"))
	logger.Warn("schema mismatch", zap.Int("fields", 3), zap.Bool("suppressed", true))
	logger.Debug("below level")

	records := exp.Records()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "schema mismatch", rec.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, rec.Severity())
	assert.Equal(t, "WARN", rec.SeverityText())

	attrs := map[string]otellog.Value{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	assert.Equal(t, "cebit", attrs["scenario"].AsString())
	assert.Equal(t, int64(3), attrs["fields"].AsInt64())
	assert.True(t, attrs["suppressed"].AsBool())
}

func TestToLogSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, toLogSeverity(zapcore.DebugLevel))
	assert.Equal(t, otellog.SeverityError, toLogSeverity(zapcore.ErrorLevel))
	assert.Equal(t, otellog.SeverityFatal, toLogSeverity(zapcore.FatalLevel))
}
