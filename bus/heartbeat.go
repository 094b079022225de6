package bus

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/msdsim/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusPublisher sends status signals to the bus.
type StatusPublisher interface {
	PublishStatusSignal(ctx context.Context, sig event.StatusSignal) error
}

// Heartbeat periodically announces that a service instance is running. It
// sends a first signal on Start and a final "stopping" signal on Stop.
type Heartbeat struct {
	pub      StatusPublisher
	service  string
	instance string
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeat creates a Heartbeat for service that signals every interval.
//
// Panics if pub is nil or interval is not positive.
func NewHeartbeat(pub StatusPublisher, service string, interval time.Duration, opts ...Option) *Heartbeat {
	if pub == nil {
		panic("bus: status publisher must not be nil")
	}
	if interval <= 0 {
		panic("bus: heartbeat interval must be positive")
	}
	o := applyOptions(opts)

	return &Heartbeat{
		pub:      pub,
		service:  service,
		instance: uuid.NewString(),
		interval: interval,
		logger:   o.logger,
	}
}

// InstanceID identifies this process in every signal.
func (h *Heartbeat) InstanceID() string {
	return h.instance
}

// Start sends the first signal and launches the ticker loop. It reports false
// when the heartbeat is already running.
func (h *Heartbeat) Start(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h.cancel = cancel
	h.done = make(chan struct{})

	h.send(ctx, event.StatusRunning)
	go h.loop(ctx, h.done)

	h.logger.Info("status signal started", zap.String("service", h.service),
		zap.String("instance", h.instance), zap.Duration("interval", h.interval))

	return true
}

// Stop ends the loop and sends a final "stopping" signal bounded by ctx.
func (h *Heartbeat) Stop(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	h.cancel = nil

	h.send(ctx, event.StatusStopping)
}

func (h *Heartbeat) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.send(ctx, event.StatusRunning)
		}
	}
}

func (h *Heartbeat) send(ctx context.Context, status string) {
	sig := event.NewStatusSignal(h.service, h.instance, status)
	if err := h.pub.PublishStatusSignal(ctx, sig); err != nil && ctx.Err() == nil {
		h.logger.Warn("status signal not sent", zap.String("status", status), zap.Error(err))
	}
}
