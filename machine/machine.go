// Package machine models what a simulated machine reports to the data sink:
// its identity, the typed fields it declares in a schema, and the data
// snapshots that must conform to that schema.
package machine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrSchemaMismatch is returned when a data snapshot holds a field the schema
// does not declare or a value whose type differs from the declared one.
var ErrSchemaMismatch = errors.New("machine: data does not match schema")

// ValueType is the declared type of a field. Its string form is the wire identifier.
type ValueType string

const (
	Bool   ValueType = "bool"
	Long   ValueType = "long"
	Double ValueType = "double"
	String ValueType = "string"
)

// Valid reports whether t is one of the four known value types.
func (t ValueType) Valid() bool {
	switch t {
	case Bool, Long, Double, String:
		return true
	default:
		return false
	}
}

// Parse converts the textual form s into a value of type t.
func (t ValueType) Parse(s string) (any, error) {
	switch t {
	case Bool:
		return strconv.ParseBool(strings.TrimSpace(s))
	case Long:
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case Double:
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case String:
		return s, nil
	default:
		return nil, fmt.Errorf("machine: unknown value type %q", string(t))
	}
}

// TypeOf returns the value type of v. Only bool, int64, float64 and string map
// to a value type; anything else reports false.
func TypeOf(v any) (ValueType, bool) {
	switch v.(type) {
	case bool:
		return Bool, true
	case int64:
		return Long, true
	case float64:
		return Double, true
	case string:
		return String, true
	default:
		return "", false
	}
}

// VisualizationType tells the consumer how to render a field.
type VisualizationType string

const (
	OnOffLight VisualizationType = "on_off_light"
	PercentBar VisualizationType = "percent_bar"
	TextField  VisualizationType = "text_field"
)

// VisualizationLevel tells the consumer where a field is shown.
type VisualizationLevel string

const (
	Overview VisualizationLevel = "overview"
	Detail   VisualizationLevel = "detail"
	Never    VisualizationLevel = "never"
)

// Identity names a physical machine. It never changes once a scenario is built.
type Identity struct {
	VendorID     string `json:"vendorId" msgpack:"vendorId" yaml:"vendorId"`
	MachineID    string `json:"machineId" msgpack:"machineId" yaml:"machineId"`
	SerialNumber string `json:"serialNumber" msgpack:"serialNumber" yaml:"serialNumber"`
	OntologyURL  string `json:"ontologyUrl,omitempty" msgpack:"ontologyUrl,omitempty" yaml:"ontologyUrl,omitempty"`
}

func (id Identity) String() string {
	return id.VendorID + "/" + id.MachineID + "/" + id.SerialNumber
}

// FieldSpec declares one reported field. Unit "" means the field has no unit.
type FieldSpec struct {
	Name               string             `json:"name" msgpack:"name" yaml:"name"`
	ValueType          ValueType          `json:"valueType" msgpack:"valueType" yaml:"valueType"`
	Unit               string             `json:"unit" msgpack:"unit" yaml:"unit"`
	VisualizationType  VisualizationType  `json:"visualizationType" msgpack:"visualizationType" yaml:"visualizationType"`
	VisualizationLevel VisualizationLevel `json:"visualizationLevel" msgpack:"visualizationLevel" yaml:"visualizationLevel"`
}

// Schema is everything the sink needs to interpret a machine's data.
// It is built once and sent unchanged before every data push.
type Schema struct {
	Machine     Identity    `json:"machine" msgpack:"machine" yaml:"machine"`
	StationID   string      `json:"stationId" msgpack:"stationId" yaml:"stationId"`
	SiteID      string      `json:"siteId" msgpack:"siteId" yaml:"siteId"`
	OntologyURL string      `json:"ontologyUrl,omitempty" msgpack:"ontologyUrl,omitempty" yaml:"ontologyUrl,omitempty"`
	Fields      []FieldSpec `json:"fields" msgpack:"fields" yaml:"fields"`
}

// Field looks up a field spec by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return FieldSpec{}, false
}

// Validate checks that every value in d is declared by s with the same type.
// Declared fields missing from d are allowed. The returned error wraps
// ErrSchemaMismatch and lists every offending field.
func (s *Schema) Validate(d Data) error {
	var problems []string
	for _, name := range d.Names() {
		spec, ok := s.Field(name)
		if !ok {
			problems = append(problems, fmt.Sprintf("%q not declared", name))
			continue
		}
		got, ok := TypeOf(d.Values[name])
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%q has unsupported value %T", name, d.Values[name]))
		case got != spec.ValueType:
			problems = append(problems, fmt.Sprintf("%q is %s, declared %s", name, got, spec.ValueType))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
	}

	return nil
}

// Data is one snapshot of a machine's field values.
type Data struct {
	Machine Identity       `json:"machine" msgpack:"machine" yaml:"machine"`
	Values  map[string]any `json:"values" msgpack:"values" yaml:"values"`
}

// Names returns the field names of d in lexical order.
func (d Data) Names() []string {
	names := make([]string, 0, len(d.Values))
	for name := range d.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// SchemaMessage is the body of a schema push.
type SchemaMessage struct {
	Schemas []Schema `json:"schemas" msgpack:"schemas"`
}

// DataMessage is the body of a data push.
type DataMessage struct {
	MachineData []Data `json:"machineData" msgpack:"machineData"`
}

// NewSchemaMessage wraps schemas into a schema push body.
func NewSchemaMessage(schemas ...Schema) SchemaMessage {
	return SchemaMessage{Schemas: schemas}
}

// NewDataMessage wraps snapshots into a data push body.
func NewDataMessage(data ...Data) DataMessage {
	return DataMessage{MachineData: data}
}
