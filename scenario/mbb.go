package scenario

import "github.com/arloliu/msdsim/machine"

// MBB field names.
const (
	FieldPartMissing   = "Bauteil fehlt"
	FieldPartCounter   = "Teilezaehler"
	FieldManualMode    = "Handbetrieb"
	FieldTagAvailable  = "Tag verfuegbar"
	FieldPartAvailable = "Bauteil verfuegbar"
	FieldMBBDoorOpen   = "Tuer offen"
)

// MBBScenario describes the MBB MVM700 station. "Bauteil verfuegbar" is
// derived as the negation of "Bauteil fehlt".
func MBBScenario() *Definition {
	light := func(name string) machine.FieldSpec {
		return field(name, machine.Bool, machine.OnOffLight, machine.Overview)
	}

	return &Definition{
		Name:        MBB,
		Description: "MBB MVM700 station: part presence, counter, manual mode and door",
		Schema: machine.Schema{
			Machine: machine.Identity{
				VendorID:     "MBB",
				MachineID:    "MVM700",
				SerialNumber: "MVM700T-009",
			},
			StationID: "1",
			SiteID:    "TAL01",
			Fields: []machine.FieldSpec{
				light(FieldPartMissing),
				field(FieldPartCounter, machine.Long, machine.TextField, machine.Overview),
				light(FieldManualMode),
				light(FieldTagAvailable),
				light(FieldPartAvailable),
				light(FieldMBBDoorOpen),
			},
		},
		Initial: map[string]any{
			FieldPartMissing:  false,
			FieldPartCounter:  int64(2),
			FieldManualMode:   false,
			FieldTagAvailable: false,
			FieldMBBDoorOpen:  false,
		},
		Derived: map[string]Rule{
			FieldPartAvailable: not(FieldPartMissing),
		},
	}
}
