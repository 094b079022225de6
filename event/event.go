// Package event defines the messages exchanged with other services over the
// event bus.
package event

import (
	"fmt"
	"time"

	"github.com/arloliu/msdsim/machine"
	"github.com/google/uuid"
)

// Subject suffixes, appended to the configured prefix.
const (
	SetMachineDataSubject  = "setMachineData"
	ProcessCompleteSubject = "processComplete"
	StartupCompleteSubject = "startupComplete"
	StatusSignalSubject    = "statusSignal"
)

// Field is one value of a SetMachineData event. Value holds the textual form
// of the declared Type.
type Field struct {
	Name               string `json:"name"`
	Type               string `json:"type"`
	Unit               string `json:"unit"`
	VisualizationType  string `json:"visualizationType"`
	VisualizationLevel string `json:"visualizationLevel"`
	Value              string `json:"value"`
}

// SetMachineData asks the data sink to record ad-hoc machine values.
type SetMachineData struct {
	ID           string  `json:"id"`
	VendorID     string  `json:"vendorId"`
	MachineID    string  `json:"machineId"`
	SerialNumber string  `json:"serialNumber"`
	StationID    string  `json:"stationId"`
	SiteID       string  `json:"siteId"`
	Fields       []Field `json:"fields"`
}

// Origin is the machine and station a SetMachineData event is reported for.
type Origin struct {
	VendorID     string
	MachineID    string
	SerialNumber string
	StationID    string
	SiteID       string
}

// Service states carried by a StatusSignal.
const (
	StatusRunning  = "running"
	StatusStopping = "stopping"
)

// StatusSignal is the heartbeat a service instance sends while it is alive.
type StatusSignal struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	InstanceID string    `json:"instanceId"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewStatusSignal stamps a StatusSignal for instance of service with the current time.
func NewStatusSignal(service, instanceID, status string) StatusSignal {
	return StatusSignal{
		ID:         uuid.NewString(),
		Service:    service,
		InstanceID: instanceID,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}

// WeldSeamErrorField is the field name of a reported weld seam error.
const WeldSeamErrorField = "Schweissnahtfehler"

// NewWeldSeamError builds a SetMachineData event carrying a single weld seam
// error text for origin.
func NewWeldSeamError(origin Origin, message string) SetMachineData {
	return SetMachineData{
		ID:           uuid.NewString(),
		VendorID:     origin.VendorID,
		MachineID:    origin.MachineID,
		SerialNumber: origin.SerialNumber,
		StationID:    origin.StationID,
		SiteID:       origin.SiteID,
		Fields: []Field{{
			Name:               WeldSeamErrorField,
			Type:               string(machine.String),
			Unit:               "",
			VisualizationType:  string(machine.TextField),
			VisualizationLevel: string(machine.Overview),
			Value:              message,
		}},
	}
}

// Machine converts the event into a schema declaring its fields and a data
// snapshot with every value parsed according to its declared type.
func (e SetMachineData) Machine() (machine.Schema, machine.Data, error) {
	id := machine.Identity{
		VendorID:     e.VendorID,
		MachineID:    e.MachineID,
		SerialNumber: e.SerialNumber,
	}
	schema := machine.Schema{
		Machine:   id,
		StationID: e.StationID,
		SiteID:    e.SiteID,
		Fields:    make([]machine.FieldSpec, 0, len(e.Fields)),
	}
	data := machine.Data{Machine: id, Values: make(map[string]any, len(e.Fields))}

	for _, f := range e.Fields {
		t := machine.ValueType(f.Type)
		if !t.Valid() {
			return machine.Schema{}, machine.Data{}, fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		v, err := t.Parse(f.Value)
		if err != nil {
			return machine.Schema{}, machine.Data{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		schema.Fields = append(schema.Fields, machine.FieldSpec{
			Name:               f.Name,
			ValueType:          t,
			Unit:               f.Unit,
			VisualizationType:  machine.VisualizationType(f.VisualizationType),
			VisualizationLevel: machine.VisualizationLevel(f.VisualizationLevel),
		})
		data.Values[f.Name] = v
	}

	return schema, data, nil
}

// ProcessComplete announces that a maintenance process finished.
type ProcessComplete struct {
	ID        string `json:"id"`
	ProcessID string `json:"processId"`
}

// StartupComplete announces that the platform finished starting.
type StartupComplete struct {
	ID string `json:"id"`
}
