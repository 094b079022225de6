package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arloliu/msdsim/event"
	"github.com/arloliu/msdsim/telemetry"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// msgPublisher is the part of jetstream.JetStream the Publisher needs.
type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Option configures a Publisher or a Router.
type Option func(*options)

type options struct {
	tp     trace.TracerProvider
	prop   propagation.TextMapPropagator
	logger *zap.Logger
}

func applyOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.prop == nil {
		o.prop = otel.GetTextMapPropagator()
	}

	return o
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithPropagator sets the propagator used on message headers. Defaults to the global one.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(o *options) { o.prop = p }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Publisher sends events to JetStream with a producer span and the trace
// context injected into the message headers.
type Publisher struct {
	js     msgPublisher
	prefix string
	tracer trace.Tracer
	prop   propagation.TextMapPropagator
	logger *zap.Logger
}

// NewPublisher creates a Publisher sending on subjects below prefix.
//
// Panics if js is nil.
func NewPublisher(js msgPublisher, prefix string, opts ...Option) *Publisher {
	if js == nil {
		panic("bus: JetStream must not be nil")
	}
	o := applyOptions(opts)

	return &Publisher{
		js:     js,
		prefix: prefix,
		tracer: telemetry.Tracer(o.tp),
		prop:   o.prop,
		logger: o.logger,
	}
}

// PublishMachineData sends ev on <prefix>.setMachineData.
func (p *Publisher) PublishMachineData(ctx context.Context, ev event.SetMachineData) error {
	return p.publish(ctx, Subject(p.prefix, event.SetMachineDataSubject), ev.ID, ev)
}

// PublishStatusSignal sends sig on <prefix>.statusSignal.
func (p *Publisher) PublishStatusSignal(ctx context.Context, sig event.StatusSignal) error {
	return p.publish(ctx, Subject(p.prefix, event.StatusSignalSubject), sig.ID, sig)
}

func (p *Publisher) publish(ctx context.Context, subject, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}

	ctx, span := p.tracer.Start(ctx, opPublish+" "+subject,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(publishAttributes(subject, id, len(body))...),
	)
	defer span.End()

	msg := &nats.Msg{Subject: subject, Data: body, Header: make(nats.Header)}
	p.prop.Inject(ctx, headerCarrier(msg.Header))

	var pubOpts []jetstream.PublishOpt
	if id != "" {
		pubOpts = append(pubOpts, jetstream.WithMsgID(id))
	}
	if _, err := p.js.PublishMsg(ctx, msg, pubOpts...); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", zap.String("subject", subject), zap.String("id", id))

	return nil
}

// Subject joins prefix and an event subject suffix.
func Subject(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}

	return prefix + "." + suffix
}
