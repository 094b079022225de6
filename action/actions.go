package action

import (
	"context"
	"fmt"

	"github.com/arloliu/msdsim/engine"
	"github.com/arloliu/msdsim/event"
	"github.com/arloliu/msdsim/scenario"
	"github.com/arloliu/msdsim/simulation"
	"go.uber.org/zap"
)

// Action names.
const (
	EmptyLoctite = "emptyLoctite"
	FillLoctite  = "fillLoctite"
	EmptyFat     = "emptyFat"
	FillFat      = "fillFat"

	ReportWeldSeamError = "reportWeldSeamError"
)

// emptyFatMax bounds the random level set by emptyFat: [0, emptyFatMax).
const emptyFatMax = 0.09

func (d *Dispatcher) plainActions() map[string]plainFunc {
	actions := map[string]plainFunc{
		EmptyLoctite: d.set(scenario.Pilot, scenario.FieldLoctiteInRange, false),
		FillLoctite:  d.set(scenario.Pilot, scenario.FieldLoctiteInRange, true),
		EmptyFat: func(ctx context.Context) error {
			level := d.float64() * emptyFatMax
			return d.engine.Apply(ctx, scenario.Pilot, func(s *scenario.State) { s.Set(scenario.FieldFat, level) })
		},
		FillFat: d.set(scenario.Pilot, scenario.FieldFat, 1.0),

		"start100HzSimulation": d.slot(simulation.Fast, true),
		"stop100HzSimulation":  d.slot(simulation.Fast, false),
		"start10HzSimulation":  d.slot(simulation.Slow, true),
		"stop10HzSimulation":   d.slot(simulation.Slow, false),
	}

	// The pilot door action drives doors 3 and 4 together.
	d.toggle(actions, "fpilotDoorOpen", scenario.Pilot, scenario.FieldDoor3Closed, scenario.FieldDoor4Closed)
	d.toggle(actions, "fpilotLocked", scenario.Pilot, scenario.FieldLocked)
	d.toggle(actions, "fpilotAutomaticMode", scenario.Pilot, scenario.FieldAutomaticMode)

	d.toggle(actions, "festoStateOk", scenario.Cebit, scenario.FieldStateOK)
	d.toggle(actions, "festoQ1", scenario.Cebit, scenario.FieldQ1)
	d.toggle(actions, "festoQ2", scenario.Cebit, scenario.FieldQ2)
	d.toggle(actions, "festoLostPart", scenario.Cebit, scenario.FieldLostPart)

	d.toggle(actions, "mbbLostPart", scenario.MBB, scenario.FieldPartMissing)
	d.toggle(actions, "mbbDoorOpen", scenario.MBB, scenario.FieldMBBDoorOpen)
	d.toggle(actions, "mbbManualMode", scenario.MBB, scenario.FieldManualMode)

	return actions
}

func (d *Dispatcher) paramActions() map[string]paramFunc {
	return map[string]paramFunc{
		ReportWeldSeamError: d.reportWeldSeamError,
	}
}

// set returns an action writing v to field of the named scenario.
func (d *Dispatcher) set(name, field string, v any) plainFunc {
	return func(ctx context.Context) error {
		return d.engine.Apply(ctx, name, func(s *scenario.State) { s.Set(field, v) })
	}
}

// toggle registers <prefix>ToTrue and <prefix>ToFalse, each writing every field at once.
func (d *Dispatcher) toggle(actions map[string]plainFunc, prefix, name string, fields ...string) {
	for _, v := range []bool{true, false} {
		suffix := "ToFalse"
		if v {
			suffix = "ToTrue"
		}
		actions[prefix+suffix] = func(ctx context.Context) error {
			return d.engine.Apply(ctx, name, func(s *scenario.State) {
				for _, f := range fields {
					s.Set(f, v)
				}
			})
		}
	}
}

func (d *Dispatcher) slot(slot simulation.Slot, start bool) plainFunc {
	return func(context.Context) error {
		var changed bool
		if start {
			if !d.engine.Initialized() {
				return fmt.Errorf("start %s simulation: %w", slot, engine.ErrUninitialized)
			}
			changed = d.scheduler.Start(slot)
		} else {
			changed = d.scheduler.Stop(slot)
		}
		if !changed {
			d.logger.Debug("simulation slot unchanged", zap.String("slot", string(slot)), zap.Bool("start", start))
		}

		return nil
	}
}

func (d *Dispatcher) reportWeldSeamError(ctx context.Context, param string) error {
	if d.events == nil {
		d.logger.Warn("event bus disabled, weld seam error dropped", zap.String("param", param))
		return nil
	}

	if err := d.events.PublishMachineData(ctx, event.NewWeldSeamError(d.origin, param)); err != nil {
		return &undeliveredError{err: err}
	}

	return nil
}
