package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/msdsim/action"
	"github.com/arloliu/msdsim/event"
	"github.com/arloliu/msdsim/machine"
	"github.com/arloliu/msdsim/telemetry"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// errMalformed marks a message that can never be handled.
var errMalformed = errors.New("malformed message")

// Performer runs named actions.
type Performer interface {
	Perform(ctx context.Context, name string) (action.Outcome, error)
}

// Initializer builds the scenarios.
type Initializer interface {
	Init(ctx context.Context, autosend bool) error
}

// MachinePublisher forwards ad-hoc machine data to the sink.
type MachinePublisher interface {
	Publish(ctx context.Context, schema *machine.Schema, data machine.Data)
}

// Processes maps completed maintenance processes to refill actions.
type Processes struct {
	LoctiteProcessID string
	FatProcessID     string
}

// RouterConfig holds what the Router needs besides its collaborators.
type RouterConfig struct {
	Prefix    string
	Stream    string
	Processes Processes
	Autosend  bool
}

// Router dispatches inbound events to the dispatcher, the engine and the publisher.
type Router struct {
	cfg       RouterConfig
	performer Performer
	init      Initializer
	pub       MachinePublisher
	tracer    trace.Tracer
	prop      propagation.TextMapPropagator
	logger    *zap.Logger

	handlers map[string]func(ctx context.Context, data []byte) error
}

// NewRouter creates a Router.
//
// Panics if any collaborator is nil.
func NewRouter(cfg RouterConfig, performer Performer, initializer Initializer, pub MachinePublisher, opts ...Option) *Router {
	if performer == nil || initializer == nil || pub == nil {
		panic("bus: router collaborators must not be nil")
	}
	o := applyOptions(opts)
	r := &Router{
		cfg:       cfg,
		performer: performer,
		init:      initializer,
		pub:       pub,
		tracer:    telemetry.Tracer(o.tp),
		prop:      o.prop,
		logger:    o.logger,
	}
	r.handlers = map[string]func(context.Context, []byte) error{
		Subject(cfg.Prefix, event.ProcessCompleteSubject): r.processComplete,
		Subject(cfg.Prefix, event.SetMachineDataSubject):  r.setMachineData,
		Subject(cfg.Prefix, event.StartupCompleteSubject): r.startupComplete,
	}

	return r
}

// Subjects returns the subjects the Router handles.
func (r *Router) Subjects() []string {
	return slices.Sorted(maps.Keys(r.handlers))
}

// Handler returns the JetStream callback. Each message gets a consumer span
// parented on the trace context in its headers. Handled messages are acked,
// malformed ones terminated.
func (r *Router) Handler() jetstream.MessageHandler {
	return func(msg jetstream.Msg) {
		ctx := context.Background()
		if h := msg.Headers(); h != nil {
			ctx = r.prop.Extract(ctx, headerCarrier(h))
		}

		stream, consumer := r.cfg.Stream, ""
		if md, err := msg.Metadata(); err == nil && md != nil {
			if md.Stream != "" {
				stream = md.Stream
			}
			consumer = md.Consumer
		}

		ctx, span := r.tracer.Start(ctx, opProcess+" "+stream,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(processAttributes(stream, consumer, msg.Subject(), len(msg.Data()))...),
		)
		defer func() {
			if rec := recover(); rec != nil {
				span.RecordError(fmt.Errorf("panic: %v", rec))
				span.SetStatus(codes.Error, "panic in handler")
				span.End()
				panic(rec)
			}
			span.End()
		}()

		err := r.handle(ctx, msg.Subject(), msg.Data())
		telemetry.RecordError(span, err)
		r.settle(msg, err)
	}
}

func (r *Router) handle(ctx context.Context, subject string, data []byte) error {
	fn, ok := r.handlers[subject]
	if !ok {
		return fmt.Errorf("%w: unexpected subject %q", errMalformed, subject)
	}

	return fn(ctx, data)
}

func (r *Router) settle(msg jetstream.Msg, err error) {
	log := r.logger.With(zap.String("subject", msg.Subject()))

	switch {
	case errors.Is(err, errMalformed):
		log.Error("dropping malformed event", zap.Error(err))
		if termErr := msg.TermWithReason(err.Error()); termErr != nil {
			log.Warn("term failed", zap.Error(termErr))
		}

		return
	case err != nil:
		log.Error("event handling failed", zap.Error(err))
	}

	if ackErr := msg.Ack(); ackErr != nil {
		log.Warn("ack failed", zap.Error(ackErr))
	}
}

func (r *Router) processComplete(ctx context.Context, data []byte) error {
	var ev event.ProcessComplete
	if err := decode(data, &ev); err != nil {
		return err
	}

	var name string
	switch {
	case ev.ProcessID == "":
		return fmt.Errorf("%w: processComplete without processId", errMalformed)
	case ev.ProcessID == r.cfg.Processes.LoctiteProcessID:
		name = action.FillLoctite
	case ev.ProcessID == r.cfg.Processes.FatProcessID:
		name = action.FillFat
	default:
		r.logger.Debug("ignoring unrelated process", zap.String("process_id", ev.ProcessID))
		return nil
	}

	_, err := r.performer.Perform(ctx, name)

	return err
}

func (r *Router) setMachineData(ctx context.Context, data []byte) error {
	var ev event.SetMachineData
	if err := decode(data, &ev); err != nil {
		return err
	}

	schema, values, err := ev.Machine()
	if err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	r.pub.Publish(ctx, &schema, values)

	return nil
}

func (r *Router) startupComplete(ctx context.Context, data []byte) error {
	var ev event.StartupComplete
	if err := decode(data, &ev); err != nil {
		return err
	}
	r.logger.Info("platform startup complete", zap.String("event_id", ev.ID))

	return r.init.Init(ctx, r.cfg.Autosend)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	return nil
}
