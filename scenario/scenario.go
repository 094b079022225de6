// Package scenario defines the simulated machines and the mutable state each
// one carries between pushes.
package scenario

import (
	"maps"
	"slices"

	"github.com/arloliu/msdsim/machine"
)

// Scenario names.
const (
	Pilot = "pilot"
	Cebit = "cebit"
	MBB   = "mbb"
)

// Rule computes a derived field from the current state.
type Rule func(s *State) any

// Mutation changes a scenario's state.
type Mutation func(s *State)

// Definition is the fixed description of a scenario: the schema it reports,
// the initial value of every stored field and the rules of its derived fields.
type Definition struct {
	Name        string
	Description string
	Schema      machine.Schema
	Initial     map[string]any
	Derived     map[string]Rule
}

// NewState returns a state store holding the definition's initial values.
func (d *Definition) NewState() *State {
	return &State{def: d, values: maps.Clone(d.Initial)}
}

// Stored reports whether name is a stored field.
func (d *Definition) Stored(name string) bool {
	_, ok := d.Initial[name]
	return ok
}

// Registry holds every known scenario by name.
var Registry = map[string]*Definition{}

func init() {
	Register(PilotScenario())
	Register(CebitScenario())
	Register(MBBScenario())
}

// Register adds d to the registry, replacing any scenario of the same name.
func Register(d *Definition) {
	Registry[d.Name] = d
}

// Get retrieves a scenario by name.
func Get(name string) (*Definition, bool) {
	d, ok := Registry[name]
	return d, ok
}

// List returns the registered scenario names in lexical order.
func List() []string {
	return slices.Sorted(maps.Keys(Registry))
}

// All returns the registered scenarios ordered by name.
func All() []*Definition {
	names := List()
	defs := make([]*Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Registry[name])
	}

	return defs
}

// field builds a field spec without a unit.
func field(name string, t machine.ValueType, vis machine.VisualizationType, level machine.VisualizationLevel) machine.FieldSpec {
	return machine.FieldSpec{
		Name:               name,
		ValueType:          t,
		VisualizationType:  vis,
		VisualizationLevel: level,
	}
}

// not returns a rule negating the stored bool field name.
func not(name string) Rule {
	return func(s *State) any { return !s.Bool(name) }
}

// same returns a rule mirroring the stored field name.
func same(name string) Rule {
	return func(s *State) any {
		v, _ := s.Get(name)
		return v
	}
}
