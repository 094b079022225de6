package scenario

import "github.com/arloliu/msdsim/machine"

// Pilot field names.
const (
	FieldFat            = "Fett"
	FieldDNC            = "DNC"
	FieldAutomaticMode  = "Automatikmodus aktiv"
	FieldLocked         = "Verriegelung aktiv"
	FieldDoor1Closed    = "Tuer 1 geschlossen"
	FieldDoor2Closed    = "Tuer 2 geschlossen"
	FieldDoor3Closed    = "Tuer 3 geschlossen"
	FieldDoor4Closed    = "Tuer 4 geschlossen"
	FieldLoctiteInRange = "Fuellstand Loctite im Sollbereich"
)

// PilotScenario describes the Festo pilot station 20.
func PilotScenario() *Definition {
	light := func(name string) machine.FieldSpec {
		return field(name, machine.Bool, machine.OnOffLight, machine.Overview)
	}

	return &Definition{
		Name:        Pilot,
		Description: "Festo pilot station 20: fat and loctite levels, doors, lock and automatic mode",
		Schema: machine.Schema{
			Machine: machine.Identity{
				VendorID:     "Festo",
				MachineID:    "Station20",
				SerialNumber: "1111111",
				OntologyURL:  "http://www.appsist.de/ontology/festo/DNC_DNCB_DSBC",
			},
			StationID:   "Station20",
			SiteID:      "DNC_DNCB_DSBC_Automation",
			OntologyURL: "http://www.appsist.de/ontology/festo/S20",
			Fields: []machine.FieldSpec{
				field(FieldFat, machine.Double, machine.PercentBar, machine.Overview),
				field(FieldDNC, machine.String, machine.TextField, machine.Overview),
				light(FieldAutomaticMode),
				light(FieldLocked),
				light(FieldDoor1Closed),
				light(FieldDoor2Closed),
				light(FieldDoor3Closed),
				light(FieldDoor4Closed),
				light(FieldLoctiteInRange),
			},
		},
		Initial: map[string]any{
			FieldFat:            1.0,
			FieldDNC:            "ST20",
			FieldAutomaticMode:  true,
			FieldLocked:         true,
			FieldDoor1Closed:    true,
			FieldDoor2Closed:    true,
			FieldDoor3Closed:    true,
			FieldDoor4Closed:    true,
			FieldLoctiteInRange: true,
		},
	}
}
