// Package bus connects the simulator to the NATS JetStream event bus. It
// publishes SetMachineData events and a periodic status signal, and consumes
// processComplete, setMachineData and startupComplete events, carrying trace
// context in the message headers both ways.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// Config locates the stream and the durable consumer.
type Config struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Durable       string
	ConnectWait   time.Duration
}

// Bus is a live JetStream connection. It publishes right away and consumes
// once Subscribe has been called.
type Bus struct {
	cfg       Config
	nc        *nats.Conn
	stream    jetstream.Stream
	consume   jetstream.ConsumeContext
	publisher *Publisher
	logger    *zap.Logger
}

// Connect dials cfg.URL and ensures the stream covering <prefix>.> exists.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Bus, error) {
	o := applyOptions(opts)

	nc, err := nats.Connect(cfg.URL,
		nats.Name("msd-sim"),
		nats.Timeout(cfg.ConnectWait),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				o.logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			o.logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{Subject(cfg.SubjectPrefix, ">")},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("stream %s: %w", cfg.Stream, err)
	}
	o.logger.Info("event bus connected", zap.String("url", nc.ConnectedUrl()), zap.String("stream", cfg.Stream))

	return &Bus{
		cfg:       cfg,
		nc:        nc,
		stream:    stream,
		publisher: NewPublisher(js, cfg.SubjectPrefix, opts...),
		logger:    o.logger,
	}, nil
}

// Publisher returns the event publisher bound to this connection.
func (b *Bus) Publisher() *Publisher {
	return b.publisher
}

// Subscribe creates or updates the durable consumer for router's subjects and
// starts delivering messages to it.
func (b *Bus) Subscribe(ctx context.Context, router *Router) error {
	if b.consume != nil {
		return errors.New("bus: already subscribed")
	}

	consumer, err := b.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:        b.cfg.Durable,
		AckPolicy:      jetstream.AckExplicitPolicy,
		DeliverPolicy:  jetstream.DeliverNewPolicy,
		FilterSubjects: router.Subjects(),
	})
	if err != nil {
		return fmt.Errorf("consumer %s: %w", b.cfg.Durable, err)
	}

	cc, err := consumer.Consume(router.Handler(), jetstream.ConsumeErrHandler(
		func(_ jetstream.ConsumeContext, err error) {
			b.logger.Warn("consume error", zap.Error(err))
		}))
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	b.consume = cc
	b.logger.Info("event bus subscribed", zap.String("durable", b.cfg.Durable), zap.Strings("subjects", router.Subjects()))

	return nil
}

// Close stops consuming and drains the connection.
func (b *Bus) Close() error {
	if b.consume != nil {
		b.consume.Stop()
	}

	var errs []error
	if err := b.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		errs = append(errs, fmt.Errorf("drain: %w", err))
	}
	b.logger.Info("event bus closed")

	return errors.Join(errs...)
}
