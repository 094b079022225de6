package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultMetricInterval = 60 * time.Second

// Metrics holds the simulator's counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	publishes  metric.Int64Counter
	mismatches metric.Int64Counter
	sinkErrors metric.Int64Counter
	actions    metric.Int64Counter
	ticks      metric.Int64Counter
}

// NewMetrics creates the instruments on mp, or on the global MeterProvider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	m := &Metrics{}
	var err error
	if m.publishes, err = meter.Int64Counter("msd.publish.count",
		metric.WithDescription("Schema and data pushes attempted per machine")); err != nil {
		return nil, err
	}
	if m.mismatches, err = meter.Int64Counter("msd.schema_mismatch.count",
		metric.WithDescription("Data pushes suppressed because values did not match the schema")); err != nil {
		return nil, err
	}
	if m.sinkErrors, err = meter.Int64Counter("msd.sink.error.count",
		metric.WithDescription("Failed requests to the data sink")); err != nil {
		return nil, err
	}
	if m.actions, err = meter.Int64Counter("msd.action.count",
		metric.WithDescription("Actions received by the dispatcher")); err != nil {
		return nil, err
	}
	if m.ticks, err = meter.Int64Counter("msd.simulation.tick.count",
		metric.WithDescription("Randomised snapshots generated by the scheduler")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordPublish(ctx context.Context, machineID string) {
	if m == nil {
		return
	}
	m.publishes.Add(ctx, 1, metric.WithAttributes(attribute.String("machine.id", machineID)))
}

func (m *Metrics) RecordSchemaMismatch(ctx context.Context, machineID string) {
	if m == nil {
		return
	}
	m.mismatches.Add(ctx, 1, metric.WithAttributes(attribute.String("machine.id", machineID)))
}

// RecordSinkError counts a failed sink request; message is "schema" or "data".
func (m *Metrics) RecordSinkError(ctx context.Context, message string) {
	if m == nil {
		return
	}
	m.sinkErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("message", message)))
}

func (m *Metrics) RecordAction(ctx context.Context, action, outcome string) {
	if m == nil {
		return
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordTick(ctx context.Context, slot string) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("slot", slot)))
}
