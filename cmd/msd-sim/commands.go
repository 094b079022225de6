package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/arloliu/msdsim"
	"github.com/arloliu/msdsim/action"
	"github.com/arloliu/msdsim/engine"
	"github.com/arloliu/msdsim/machine"
	"github.com/arloliu/msdsim/scenario"
	"github.com/arloliu/msdsim/simulation"
	"github.com/arloliu/msdsim/telemetry"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// loadConfig reads path, or the built-in defaults when path is empty.
func loadConfig(path string) (*msdsim.Config, error) {
	if path == "" {
		return msdsim.DefaultConfig()
	}

	return msdsim.LoadConfig(path)
}

// sendSnapshots publishes the initial snapshot of the named scenario, or of
// every scenario when name is empty, and reports what went out to w.
func sendSnapshots(ctx context.Context, cfg *msdsim.Config, name string, w io.Writer) error {
	names := scenario.List()
	if name != "" {
		if _, ok := scenario.Get(name); !ok {
			return fmt.Errorf("unknown scenario: %s (use 'msd-sim list' to see available scenarios)", name)
		}
		names = []string{name}
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	eng := engine.New(newPublisher(cfg, logger, metrics), engine.WithLogger(logger.Named("engine")))
	defer eng.Close()

	if err := eng.Init(ctx, false); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Sending %d scenario(s) to %s\n", len(names), cfg.Sink.BaseURL())

	var errs []error
	for _, n := range names {
		if err := eng.Publish(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n, err))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s published\n", n)
	}

	return errors.Join(errs...)
}

// listCatalogue prints every scenario with its fields, then the actions.
func listCatalogue(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, def := range scenario.All() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, def.Schema.Machine.MachineID, def.Description)
		for _, f := range def.Schema.Fields {
			kind := "stored"
			if !def.Stored(f.Name) {
				kind = "derived"
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, f.ValueType, kind)
		}
		_, _ = fmt.Fprintln(tw)
	}

	d := catalogueDispatcher()
	_, _ = fmt.Fprintf(tw, "Actions:\n  %s\n", strings.Join(d.Actions(), "\n  "))
	_, _ = fmt.Fprintf(tw, "Actions with parameter:\n  %s\n", strings.Join(d.ParamActions(), "\n  "))

	return tw.Flush()
}

// catalogueDispatcher builds a dispatcher only to read its action names.
// Nothing is initialized or started.
func catalogueDispatcher() *action.Dispatcher {
	eng := engine.New(discardPublisher{})

	return action.New(eng, simulation.New(eng), action.WithLogger(zap.NewNop()))
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, *machine.Schema, machine.Data) {}

// printConfig writes cfg as YAML.
func printConfig(w io.Writer, cfg *msdsim.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return enc.Close()
}
