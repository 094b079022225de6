package telemetry

import (
	"context"
	"fmt"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

const instrumentationName = "github.com/arloliu/msdsim"

// otelCore is a zapcore.Core that emits every entry as an OTel log record.
type otelCore struct {
	zapcore.LevelEnabler
	logger otellog.Logger
	attrs  []otellog.KeyValue
}

// NewOTelCore returns a zap core that forwards entries at or above enab to lp.
func NewOTelCore(lp otellog.LoggerProvider, enab zapcore.LevelEnabler) zapcore.Core {
	return &otelCore{
		LevelEnabler: enab,
		logger:       lp.Logger(instrumentationName),
	}
}

func (c *otelCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &otelCore{
		LevelEnabler: c.LevelEnabler,
		logger:       c.logger,
		attrs:        make([]otellog.KeyValue, 0, len(c.attrs)+len(fields)),
	}
	clone.attrs = append(clone.attrs, c.attrs...)
	clone.attrs = append(clone.attrs, fieldsToAttrs(fields)...)

	return clone
}

func (c *otelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

func (c *otelCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	var rec otellog.Record
	rec.SetTimestamp(ent.Time)
	rec.SetObservedTimestamp(time.Now())
	rec.SetBody(otellog.StringValue(ent.Message))
	rec.SetSeverity(toLogSeverity(ent.Level))
	rec.SetSeverityText(ent.Level.CapitalString())
	rec.AddAttributes(c.attrs...)
	rec.AddAttributes(fieldsToAttrs(fields)...)
	if ent.LoggerName != "" {
		rec.AddAttributes(otellog.String("logger", ent.LoggerName))
	}

	c.logger.Emit(context.Background(), rec)

	return nil
}

func (*otelCore) Sync() error { return nil }

func fieldsToAttrs(fields []zapcore.Field) []otellog.KeyValue {
	if len(fields) == 0 {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	attrs := make([]otellog.KeyValue, 0, len(enc.Fields))
	for k, v := range enc.Fields {
		attrs = append(attrs, otellog.KeyValue{Key: k, Value: toLogValue(v)})
	}

	return attrs
}

func toLogValue(v any) otellog.Value {
	switch x := v.(type) {
	case string:
		return otellog.StringValue(x)
	case bool:
		return otellog.BoolValue(x)
	case int:
		return otellog.IntValue(x)
	case int32:
		return otellog.Int64Value(int64(x))
	case int64:
		return otellog.Int64Value(x)
	case uint32:
		return otellog.Int64Value(int64(x))
	case float32:
		return otellog.Float64Value(float64(x))
	case float64:
		return otellog.Float64Value(x)
	case time.Duration:
		return otellog.StringValue(x.String())
	case time.Time:
		return otellog.StringValue(x.Format(time.RFC3339Nano))
	case error:
		return otellog.StringValue(x.Error())
	default:
		return otellog.StringValue(fmt.Sprint(x))
	}
}

func toLogSeverity(level zapcore.Level) otellog.Severity {
	switch level {
	case zapcore.DebugLevel:
		return otellog.SeverityDebug
	case zapcore.InfoLevel:
		return otellog.SeverityInfo
	case zapcore.WarnLevel:
		return otellog.SeverityWarn
	case zapcore.ErrorLevel:
		return otellog.SeverityError
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}
