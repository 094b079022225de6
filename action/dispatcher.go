// Package action maps the action names accepted by the control surface to
// scenario mutations, simulation toggles and bus events.
package action

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/arloliu/msdsim/event"
	"github.com/arloliu/msdsim/scenario"
	"github.com/arloliu/msdsim/simulation"
	"github.com/arloliu/msdsim/telemetry"
	"go.uber.org/zap"
)

// Outcome tells how the dispatcher treated an action.
type Outcome int

const (
	// Applied means the action was recognised and carried out.
	Applied Outcome = iota
	// Unknown means no action of that name exists; nothing happened.
	Unknown
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}

	return "unknown"
}

// Engine applies a mutation to a scenario and pushes the result.
type Engine interface {
	Apply(ctx context.Context, name string, m scenario.Mutation) error
	Initialized() bool
}

// Scheduler toggles the randomised generators.
type Scheduler interface {
	Start(slot simulation.Slot) bool
	Stop(slot simulation.Slot) bool
}

// EventPublisher sends SetMachineData events to the bus.
type EventPublisher interface {
	PublishMachineData(ctx context.Context, ev event.SetMachineData) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEventPublisher enables reportWeldSeamError. Without one those events are dropped.
func WithEventPublisher(p EventPublisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

// WithOrigin sets the machine and station reported in weld seam events.
func WithOrigin(o event.Origin) Option {
	return func(d *Dispatcher) { d.origin = o }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics sets the counters to record actions into.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithRand sets the source used for random fat levels.
func WithRand(r *rand.Rand) Option {
	return func(d *Dispatcher) { d.rng = r }
}

type (
	plainFunc func(ctx context.Context) error
	paramFunc func(ctx context.Context, param string) error
)

// Dispatcher executes named actions.
type Dispatcher struct {
	engine    Engine
	scheduler Scheduler
	events    EventPublisher
	origin    event.Origin
	logger    *zap.Logger
	metrics   *telemetry.Metrics

	rngMu sync.Mutex
	rng   *rand.Rand

	plain map[string]plainFunc
	param map[string]paramFunc
}

// New creates a Dispatcher driving engine and scheduler.
//
// Panics if engine or scheduler is nil.
func New(engine Engine, scheduler Scheduler, opts ...Option) *Dispatcher {
	if engine == nil || scheduler == nil {
		panic("action: engine and scheduler must not be nil")
	}
	d := &Dispatcher{
		engine:    engine,
		scheduler: scheduler,
		logger:    zap.NewNop(),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // simulation data
	}
	for _, opt := range opts {
		opt(d)
	}
	d.plain = d.plainActions()
	d.param = d.paramActions()

	return d
}

// Perform runs the action called name. An unknown name is logged and reported
// as Unknown with a nil error.
func (d *Dispatcher) Perform(ctx context.Context, name string) (Outcome, error) {
	fn, ok := d.plain[name]
	if !ok {
		return d.unknown(ctx, name), nil
	}

	return d.run(ctx, name, func() error { return fn(ctx) })
}

// PerformWithParam runs the parameterised action called name.
func (d *Dispatcher) PerformWithParam(ctx context.Context, name, param string) (Outcome, error) {
	fn, ok := d.param[name]
	if !ok {
		return d.unknown(ctx, name), nil
	}

	return d.run(ctx, name, func() error { return fn(ctx, param) })
}

// Actions returns the plain action names in lexical order.
func (d *Dispatcher) Actions() []string {
	return sortedKeys(d.plain)
}

// ParamActions returns the parameterised action names in lexical order.
func (d *Dispatcher) ParamActions() []string {
	return sortedKeys(d.param)
}

// undeliveredError marks an action whose fire-and-forget bus event was lost.
// The caller still sees the action as applied.
type undeliveredError struct {
	err error
}

func (e *undeliveredError) Error() string { return "event not delivered: " + e.err.Error() }

func (e *undeliveredError) Unwrap() error { return e.err }

func (d *Dispatcher) run(ctx context.Context, name string, fn func() error) (Outcome, error) {
	err := fn()
	var undelivered *undeliveredError
	if errors.As(err, &undelivered) {
		d.logger.Error("action event not delivered", zap.String("action", name), zap.Error(undelivered.err))
		d.metrics.RecordAction(ctx, name, "failed")

		return Applied, nil
	}
	if err != nil {
		d.logger.Error("action failed", zap.String("action", name), zap.Error(err))
		d.metrics.RecordAction(ctx, name, "failed")

		return Applied, err
	}
	d.logger.Debug("action applied", zap.String("action", name))
	d.metrics.RecordAction(ctx, name, Applied.String())

	return Applied, nil
}

func (d *Dispatcher) unknown(ctx context.Context, name string) Outcome {
	d.logger.Warn("unknown action ignored", zap.String("action", name))
	d.metrics.RecordAction(ctx, name, Unknown.String())

	return Unknown
}

func (d *Dispatcher) float64() float64 {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()

	return d.rng.Float64()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
