// Package simulation runs the periodic randomised Cebit generators.
package simulation

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/msdsim/engine"
	"github.com/arloliu/msdsim/scenario"
	"github.com/arloliu/msdsim/telemetry"
	"go.uber.org/zap"
)

// Slot names one generator.
type Slot string

const (
	// Fast ticks every 10ms by default.
	Fast Slot = "fast"
	// Slow ticks every 100ms by default.
	Slow Slot = "slow"
)

// Applier applies a mutation to a scenario and pushes the result.
type Applier interface {
	Apply(ctx context.Context, name string, m scenario.Mutation) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPeriod overrides the tick period of slot.
func WithPeriod(slot Slot, d time.Duration) Option {
	return func(s *Scheduler) {
		if st, ok := s.slots[slot]; ok && d > 0 {
			st.period = d
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithMetrics sets the counters to record ticks into.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithSeed makes every generator draw from a PCG seeded with seed.
func WithSeed(seed uint64) Option {
	return func(s *Scheduler) {
		s.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) } //nolint:gosec // simulation data
	}
}

type slotState struct {
	period  time.Duration
	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Scheduler owns the fast and slow generators. Each slot runs at most one loop.
type Scheduler struct {
	applier Applier
	slots   map[Slot]*slotState
	logger  *zap.Logger
	metrics *telemetry.Metrics
	newRand func() *rand.Rand
}

// New creates a Scheduler applying random Cebit toggles through applier.
//
// Panics if applier is nil.
func New(applier Applier, opts ...Option) *Scheduler {
	if applier == nil {
		panic("simulation: applier must not be nil")
	}
	s := &Scheduler{
		applier: applier,
		slots: map[Slot]*slotState{
			Fast: {period: 10 * time.Millisecond},
			Slow: {period: 100 * time.Millisecond},
		},
		logger: zap.NewNop(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // simulation data
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start launches slot's loop. It reports false when the slot is unknown or already running.
func (s *Scheduler) Start(slot Slot) bool {
	st, ok := s.slots[slot]
	if !ok {
		s.logger.Warn("unknown simulation slot", zap.String("slot", string(slot)))
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.running.CompareAndSwap(false, true) {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	st.cancel = cancel
	st.done = make(chan struct{})
	go s.loop(ctx, slot, st, st.done)

	s.logger.Info("simulation started", zap.String("slot", string(slot)), zap.Duration("period", st.period))

	return true
}

// Stop cancels slot's loop and waits for it to exit. A push already handed to
// the engine may still land afterwards; no further tick starts. It reports
// false when the slot is unknown or not running.
func (s *Scheduler) Stop(slot Slot) bool {
	st, ok := s.slots[slot]
	if !ok {
		s.logger.Warn("unknown simulation slot", zap.String("slot", string(slot)))
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.running.Load() {
		return false
	}

	st.cancel()
	<-st.done
	st.running.Store(false)

	s.logger.Info("simulation stopped", zap.String("slot", string(slot)))

	return true
}

// Running reports whether slot's loop is active. A loop that gave up because
// the scenarios are not initialized or already closed is not running.
func (s *Scheduler) Running(slot Slot) bool {
	st, ok := s.slots[slot]
	return ok && st.running.Load()
}

// Close stops every slot.
func (s *Scheduler) Close() {
	for slot := range s.slots {
		s.Stop(slot)
	}
}

func (s *Scheduler) loop(ctx context.Context, slot Slot, st *slotState, done chan<- struct{}) {
	defer close(done)

	rng := s.newRand()
	ticker := time.NewTicker(st.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			toggles := scenario.RandomCebitToggles(rng)
			err := s.applier.Apply(ctx, scenario.Cebit, toggles.Apply)
			switch {
			case err == nil:
				s.metrics.RecordTick(ctx, string(slot))
			case ctx.Err() != nil:
				return
			case errors.Is(err, engine.ErrUninitialized), errors.Is(err, engine.ErrClosed):
				st.running.Store(false)
				s.logger.Error("simulation aborted", zap.String("slot", string(slot)), zap.Error(err))

				return
			default:
				s.logger.Warn("simulation tick failed", zap.String("slot", string(slot)), zap.Error(err))
			}
		}
	}
}
