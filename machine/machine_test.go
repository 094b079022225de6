package machine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Machine:   Identity{VendorID: "MBB", MachineID: "MVM700", SerialNumber: "MVM700T-009"},
		StationID: "1",
		SiteID:    "TAL01",
		Fields: []FieldSpec{
			{Name: "Bauteil fehlt", ValueType: Bool, VisualizationType: OnOffLight, VisualizationLevel: Overview},
			{Name: "Teilezaehler", ValueType: Long, VisualizationType: TextField, VisualizationLevel: Overview},
			{Name: "Fett", ValueType: Double, VisualizationType: PercentBar, VisualizationLevel: Overview},
			{Name: "DNC", ValueType: String, VisualizationType: TextField, VisualizationLevel: Overview},
		},
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  ValueType
		ok    bool
	}{
		{name: "bool", value: true, want: Bool, ok: true},
		{name: "long", value: int64(2), want: Long, ok: true},
		{name: "double", value: 0.5, want: Double, ok: true},
		{name: "string", value: "ST20", want: String, ok: true},
		{name: "plain int", value: 2, ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TypeOf(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueTypeParse(t *testing.T) {
	tests := []struct {
		typ     ValueType
		input   string
		want    any
		wantErr bool
	}{
		{typ: Bool, input: "true", want: true},
		{typ: Bool, input: " false ", want: false},
		{typ: Bool, input: "maybe", wantErr: true},
		{typ: Long, input: "42", want: int64(42)},
		{typ: Long, input: "4.2", wantErr: true},
		{typ: Double, input: "0.25", want: 0.25},
		{typ: String, input: " keep spaces ", want: " keep spaces "},
		{typ: ValueType("date"), input: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.input, func(t *testing.T) {
			got, err := tt.typ.Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueTypeValid(t *testing.T) {
	assert.True(t, Long.Valid())
	assert.False(t, ValueType("int").Valid())
}

func TestSchemaValidate(t *testing.T) {
	s := testSchema()

	t.Run("matching subset", func(t *testing.T) {
		err := s.Validate(Data{Values: map[string]any{"Bauteil fehlt": false, "Teilezaehler": int64(2)}})
		assert.NoError(t, err)
	})

	t.Run("undeclared field", func(t *testing.T) {
		err := s.Validate(Data{Values: map[string]any{"Tuer offen": true}})
		require.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "Tuer offen")
	})

	t.Run("wrong type", func(t *testing.T) {
		err := s.Validate(Data{Values: map[string]any{"Fett": "full"}})
		require.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "declared double")
	})

	t.Run("unsupported go type", func(t *testing.T) {
		err := s.Validate(Data{Values: map[string]any{"Teilezaehler": 2}})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestMessagesWireFormat(t *testing.T) {
	s := testSchema()
	s.Fields = s.Fields[:1]
	s.OntologyURL = "http://www.appsist.de/ontology/festo/S20"

	raw, err := json.Marshal(NewSchemaMessage(*s))
	require.NoError(t, err)
	assert.JSONEq(t, `{"schemas":[{
		"machine":{"vendorId":"MBB","machineId":"MVM700","serialNumber":"MVM700T-009"},
		"stationId":"1","siteId":"TAL01",
		"ontologyUrl":"http://www.appsist.de/ontology/festo/S20",
		"fields":[{"name":"Bauteil fehlt","valueType":"bool","unit":"","visualizationType":"on_off_light","visualizationLevel":"overview"}]
	}]}`, string(raw))

	raw, err = json.Marshal(NewDataMessage(Data{Machine: s.Machine, Values: map[string]any{"Bauteil fehlt": true}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"machineData":[{
		"machine":{"vendorId":"MBB","machineId":"MVM700","serialNumber":"MVM700T-009"},
		"values":{"Bauteil fehlt":true}
	}]}`, string(raw))
}

func TestDataNamesSorted(t *testing.T) {
	d := Data{Values: map[string]any{"b": 1, "a": 2, "c": 3}}
	assert.Equal(t, []string{"a", "b", "c"}, d.Names())
}
