package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/msdsim"
	"github.com/arloliu/msdsim/action"
	"github.com/arloliu/msdsim/bus"
	"github.com/arloliu/msdsim/control"
	"github.com/arloliu/msdsim/engine"
	"github.com/arloliu/msdsim/event"
	"github.com/arloliu/msdsim/publisher"
	"github.com/arloliu/msdsim/scenario"
	"github.com/arloliu/msdsim/simulation"
	"github.com/arloliu/msdsim/sink"
	"github.com/arloliu/msdsim/telemetry"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired service.
type app struct {
	cfg        *msdsim.Config
	logger     *zap.Logger
	providers  *telemetry.Providers
	engine     *engine.Engine
	scheduler  *simulation.Scheduler
	bus        *bus.Bus
	heartbeat  *bus.Heartbeat
	dispatcher *action.Dispatcher
	control    *control.Server
}

// newApp builds every component in dependency order. On error whatever was
// already started is torn down.
func newApp(ctx context.Context, cfg *msdsim.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.close(context.WithoutCancel(ctx))
		}
	}()

	if a.providers, err = telemetry.Setup(ctx, &cfg.Telemetry); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if a.logger, err = newLogger(cfg, a.providers); err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	pub := newPublisher(cfg, a.logger, metrics)
	a.engine = engine.New(pub, engine.WithLogger(a.logger.Named("engine")))
	a.scheduler = simulation.New(a.engine,
		simulation.WithPeriod(simulation.Fast, cfg.Simulation.FastPeriod),
		simulation.WithPeriod(simulation.Slow, cfg.Simulation.SlowPeriod),
		simulation.WithLogger(a.logger.Named("simulation")),
		simulation.WithMetrics(metrics),
	)

	dispatcherOpts := []action.Option{
		action.WithLogger(a.logger.Named("action")),
		action.WithMetrics(metrics),
		action.WithOrigin(event.Origin{
			VendorID:     cfg.Machine.VendorID,
			MachineID:    cfg.Machine.MachineID,
			SerialNumber: cfg.Machine.SerialNumber,
			StationID:    cfg.Station.StationID,
			SiteID:       cfg.Station.SiteID,
		}),
	}
	if cfg.Bus.Enabled {
		a.bus, err = bus.Connect(ctx, bus.Config{
			URL:           cfg.Bus.URL,
			Stream:        cfg.Bus.Stream,
			SubjectPrefix: cfg.Bus.SubjectPrefix,
			Durable:       cfg.Bus.Durable,
			ConnectWait:   cfg.Bus.ConnectWait,
		}, bus.WithLogger(a.logger.Named("bus")))
		if err != nil {
			return nil, fmt.Errorf("event bus: %w", err)
		}
		dispatcherOpts = append(dispatcherOpts, action.WithEventPublisher(a.bus.Publisher()))
	}
	a.dispatcher = action.New(a.engine, a.scheduler, dispatcherOpts...)

	if a.bus != nil {
		router := bus.NewRouter(bus.RouterConfig{
			Prefix: cfg.Bus.SubjectPrefix,
			Stream: cfg.Bus.Stream,
			Processes: bus.Processes{
				LoctiteProcessID: cfg.Processes.LoctiteProcessID,
				FatProcessID:     cfg.Processes.FatProcessID,
			},
			Autosend: cfg.Autosend,
		}, a.dispatcher, a.engine, pub, bus.WithLogger(a.logger.Named("bus")))
		if err = a.bus.Subscribe(ctx, router); err != nil {
			return nil, fmt.Errorf("event bus: %w", err)
		}

		if cfg.StatusSignal.Enabled {
			a.heartbeat = bus.NewHeartbeat(a.bus.Publisher(), cfg.StatusSignal.Service, cfg.StatusSignal.Interval,
				bus.WithLogger(a.logger.Named("status")))
			a.heartbeat.Start(ctx)
		}
	}

	a.control = control.New(control.Config{
		Addr:      cfg.Webserver.Addr(),
		BasePath:  cfg.Webserver.BasePath,
		StaticDir: cfg.Webserver.StaticDir,
	}, a.dispatcher,
		control.WithLogger(a.logger.Named("control")),
		control.WithScenarios(controlScenarios()...),
	)

	return a, nil
}

func newLogger(cfg *msdsim.Config, providers *telemetry.Providers) (*zap.Logger, error) {
	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if providers.Logger != nil {
		logger = telemetry.Tee(logger, telemetry.NewOTelCore(providers.Logger, logger.Level()))
	}

	return logger, nil
}

func newPublisher(cfg *msdsim.Config, logger *zap.Logger, metrics *telemetry.Metrics) *publisher.Publisher {
	client := sink.New(cfg.Sink.BaseURL(),
		sink.WithTimeout(cfg.Sink.Timeout),
		sink.WithContentType(sink.ContentType(cfg.Sink.ContentType)),
		sink.WithLogger(logger.Named("sink")),
	)

	return publisher.New(client,
		publisher.WithLogger(logger.Named("publisher")),
		publisher.WithMetrics(metrics),
	)
}

func controlScenarios() []control.Scenario {
	defs := scenario.All()
	out := make([]control.Scenario, 0, len(defs))
	for _, d := range defs {
		out = append(out, control.Scenario{
			Name:        d.Name,
			MachineID:   d.Schema.Machine.MachineID,
			Description: d.Description,
		})
	}

	return out
}

// run initializes the scenarios when no startupComplete event can be expected,
// serves until ctx is done and then shuts everything down.
func (a *app) run(ctx context.Context) error {
	switch {
	case a.cfg.InitializeOnStart:
		a.initialize(ctx)
	case a.bus == nil:
		a.logger.Info("event bus disabled, initializing scenarios on start")
		a.initialize(ctx)
	default:
		a.logger.Info("waiting for startupComplete before initializing scenarios")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.control.Start() }()

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err = <-errCh:
		if err != nil {
			err = fmt.Errorf("control server: %w", err)
		}
	}

	return errors.Join(err, a.close(context.WithoutCancel(ctx)))
}

func (a *app) initialize(ctx context.Context) {
	if err := a.engine.Init(ctx, a.cfg.Autosend); err != nil {
		a.logger.Error("scenario initialization incomplete", zap.Error(err))
	}
}

// close stops components in reverse start order. Nil components are skipped.
func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if a.control != nil {
		errs = append(errs, a.control.Shutdown(ctx))
	}
	if a.scheduler != nil {
		a.scheduler.Close()
	}
	if a.heartbeat != nil {
		a.heartbeat.Stop(ctx)
	}
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	errs = append(errs, a.providers.Shutdown(ctx))

	return errors.Join(errs...)
}
