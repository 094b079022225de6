package scenario

import (
	"maps"

	"github.com/arloliu/msdsim/machine"
)

// State is the mutable store of one scenario. It is not safe for concurrent
// use; the engine gives each State a single owning goroutine.
type State struct {
	def    *Definition
	values map[string]any
}

// Name returns the scenario name.
func (s *State) Name() string { return s.def.Name }

// Schema returns the scenario's schema.
func (s *State) Schema() *machine.Schema { return &s.def.Schema }

// Get returns the stored value of name.
func (s *State) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Bool returns the stored value of name when it is a bool, false otherwise.
func (s *State) Bool(name string) bool {
	b, _ := s.values[name].(bool)
	return b
}

// Set stores v under name. Nothing is checked here: a value that disagrees
// with the schema is caught when the snapshot is published.
func (s *State) Set(name string, v any) {
	s.values[name] = v
}

// Snapshot returns the current data of the scenario. Derived fields are
// evaluated now and never cached.
func (s *State) Snapshot() machine.Data {
	values := maps.Clone(s.values)
	for name, rule := range s.def.Derived {
		values[name] = rule(s)
	}

	return machine.Data{Machine: s.def.Schema.Machine, Values: values}
}
