// Package publisher pushes machine state to the data sink: the schema first,
// then the data snapshot when it conforms to that schema.
package publisher

import (
	"context"
	"fmt"

	"github.com/arloliu/msdsim/machine"
	"github.com/arloliu/msdsim/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Sink receives schema and data messages.
type Sink interface {
	SendSchema(ctx context.Context, msg machine.SchemaMessage) error
	SendData(ctx context.Context, msg machine.DataMessage) error
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Publisher) { p.tracer = telemetry.Tracer(tp) }
}

// WithMetrics sets the counters to record into.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// Publisher sends schema+data pairs. Failures are logged and counted, never returned.
type Publisher struct {
	sink    Sink
	logger  *zap.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// New creates a Publisher writing to sink.
//
// Panics if sink is nil.
func New(sink Sink, opts ...Option) *Publisher {
	if sink == nil {
		panic("publisher: sink must not be nil")
	}
	p := &Publisher{
		sink:   sink,
		logger: zap.NewNop(),
		tracer: telemetry.Tracer(nil),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish sends schema and then data. The schema always goes out; data that
// does not match the schema is dropped with an error log.
//
// A nil schema means the caller publishes a scenario that was never
// initialized, which is a programming error: Publish panics.
func (p *Publisher) Publish(ctx context.Context, schema *machine.Schema, data machine.Data) {
	if schema == nil {
		panic(fmt.Sprintf("publisher: publish of uninitialized machine %s", data.Machine))
	}

	machineID := schema.Machine.MachineID
	ctx, span := p.tracer.Start(ctx, "publish "+machineID,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("msd.machine.id", machineID),
			attribute.String("msd.station.id", schema.StationID),
			attribute.Int("msd.data.fields", len(data.Values)),
		),
	)
	defer span.End()

	p.metrics.RecordPublish(ctx, machineID)
	log := p.logger.With(zap.String("machine", schema.Machine.String()))

	if err := p.sink.SendSchema(ctx, machine.NewSchemaMessage(*schema)); err != nil {
		telemetry.RecordError(span, err)
		p.metrics.RecordSinkError(ctx, "schema")
		log.Error("failed to send schema", zap.Error(err))
	}

	if err := schema.Validate(data); err != nil {
		telemetry.RecordError(span, err)
		p.metrics.RecordSchemaMismatch(ctx, machineID)
		log.Error("data suppressed", zap.Error(err))

		return
	}

	if err := p.sink.SendData(ctx, machine.NewDataMessage(data)); err != nil {
		telemetry.RecordError(span, err)
		p.metrics.RecordSinkError(ctx, "data")
		log.Error("failed to send data", zap.Error(err))

		return
	}

	log.Debug("published", zap.Int("fields", len(data.Values)))
}
