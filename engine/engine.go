// Package engine owns the scenario states. Each scenario lives in its own
// goroutine; every mutation, snapshot and push of that scenario is a request
// handled there, so a push always observes a complete update.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/msdsim/machine"
	"github.com/arloliu/msdsim/scenario"
	"go.uber.org/zap"
)

var (
	// ErrUninitialized is returned for any request before Init.
	ErrUninitialized = errors.New("engine: scenarios not initialized")

	// ErrUnknownScenario is returned for a scenario name the engine does not own.
	ErrUnknownScenario = errors.New("engine: unknown scenario")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine: closed")
)

// Publisher pushes a scenario's schema and snapshot.
type Publisher interface {
	Publish(ctx context.Context, schema *machine.Schema, data machine.Data)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDefinitions replaces the scenarios owned by the engine. Defaults to scenario.All().
func WithDefinitions(defs ...*scenario.Definition) Option {
	return func(e *Engine) { e.defs = defs }
}

// Engine serializes access to the scenario states.
type Engine struct {
	defs   []*scenario.Definition
	pub    Publisher
	logger *zap.Logger

	mu     sync.RWMutex
	owners map[string]*owner
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup
}

// New creates an engine publishing through pub. No scenario exists until Init.
//
// Panics if pub is nil.
func New(pub Publisher, opts ...Option) *Engine {
	if pub == nil {
		panic("engine: publisher must not be nil")
	}
	e := &Engine{
		defs:   scenario.All(),
		pub:    pub,
		logger: zap.NewNop(),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Init builds the scenario states and starts their owners. When autosend is
// true each scenario pushes its initial snapshot. Calling Init again is a no-op.
func (e *Engine) Init(ctx context.Context, autosend bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.owners != nil {
		e.mu.Unlock()
		e.logger.Debug("scenarios already initialized")

		return nil
	}

	e.owners = make(map[string]*owner, len(e.defs))
	for _, def := range e.defs {
		o := &owner{
			state:  def.NewState(),
			reqs:   make(chan request),
			pub:    e.pub,
			logger: e.logger.With(zap.String("scenario", def.Name)),
		}
		e.owners[def.Name] = o
		e.wg.Add(1)
		go o.run(e.quit, &e.wg)
	}
	e.mu.Unlock()

	e.logger.Info("scenarios initialized", zap.Int("count", len(e.defs)), zap.Bool("autosend", autosend))
	if !autosend {
		return nil
	}

	var errs []error
	for _, def := range e.defs {
		if err := e.Publish(ctx, def.Name); err != nil {
			errs = append(errs, fmt.Errorf("initial publish of %s: %w", def.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Initialized reports whether Init has run.
func (e *Engine) Initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.owners != nil
}

// Apply runs m on the named scenario and pushes the result.
func (e *Engine) Apply(ctx context.Context, name string, m scenario.Mutation) error {
	return e.submit(ctx, name, request{mutate: m, publish: true})
}

// Publish pushes the named scenario's current snapshot without changing it.
func (e *Engine) Publish(ctx context.Context, name string) error {
	return e.submit(ctx, name, request{publish: true})
}

// Snapshot returns the named scenario's current data.
func (e *Engine) Snapshot(ctx context.Context, name string) (machine.Data, error) {
	var data machine.Data
	err := e.submit(ctx, name, request{read: func(s *scenario.State) { data = s.Snapshot() }})

	return data, err
}

// Close stops every owner and waits for them. Requests already accepted finish first.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.quit)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Engine) owner(name string) (*owner, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch {
	case e.closed:
		return nil, ErrClosed
	case e.owners == nil:
		return nil, ErrUninitialized
	}
	o, ok := e.owners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}

	return o, nil
}

// submit hands req to the scenario's owner and waits for it. Once accepted a
// request always runs to completion, even if ctx is cancelled meanwhile.
func (e *Engine) submit(ctx context.Context, name string, req request) error {
	o, err := e.owner(name)
	if err != nil {
		return err
	}

	req.ctx = context.WithoutCancel(ctx)
	req.done = make(chan struct{})

	select {
	case o.reqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.quit:
		return ErrClosed
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
