package scenario

import "github.com/arloliu/msdsim/machine"

// Cebit field names. The first four are stored, the rest derived.
const (
	FieldStateOK          = "state_ok"
	FieldQ1               = "q1"
	FieldQ2               = "q2"
	FieldLostPart         = "Teil verloren"
	FieldDoorOpen         = "Tuer offen"
	FieldLidMagazineEmpty = "Deckelmagazin leer"
	FieldSpringMagEmpty   = "Federmagazin leer"
)

// CebitScenario describes the robot arm assembly demonstrator.
//
//	Tuer offen         = !state_ok
//	Deckelmagazin leer = q2
//	Federmagazin leer  = q1
func CebitScenario() *Definition {
	return &Definition{
		Name:        Cebit,
		Description: "Assembly demonstrator with a robot arm controller; randomised by the simulation slots",
		Schema: machine.Schema{
			Machine: machine.Identity{
				VendorID:     "Anlage1",
				MachineID:    "Maschine20",
				SerialNumber: "RV-2FB Robot Arm Controller",
				OntologyURL:  "http://www.appsist.de/ontology/demonstrator/Demonstrator",
			},
			StationID:   "Anlage1",
			SiteID:      "Anlage1",
			OntologyURL: "http://www.appsist.de/ontology/demonstrator/StationMontage",
			Fields: []machine.FieldSpec{
				field(FieldStateOK, machine.Bool, machine.OnOffLight, machine.Never),
				field(FieldQ1, machine.Bool, machine.OnOffLight, machine.Never),
				field(FieldQ2, machine.Bool, machine.OnOffLight, machine.Never),
				field(FieldLostPart, machine.Bool, machine.OnOffLight, machine.Overview),
				field(FieldDoorOpen, machine.Bool, machine.OnOffLight, machine.Overview),
				field(FieldLidMagazineEmpty, machine.Bool, machine.OnOffLight, machine.Overview),
				field(FieldSpringMagEmpty, machine.Bool, machine.OnOffLight, machine.Overview),
			},
		},
		Initial: map[string]any{
			FieldStateOK:  true,
			FieldQ1:       false,
			FieldQ2:       false,
			FieldLostPart: false,
		},
		Derived: map[string]Rule{
			FieldDoorOpen:         not(FieldStateOK),
			FieldLidMagazineEmpty: same(FieldQ2),
			FieldSpringMagEmpty:   same(FieldQ1),
		},
	}
}
