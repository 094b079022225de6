package scenario

import "math/rand/v2"

// CebitToggles is one randomised Cebit update.
type CebitToggles struct {
	StateOK  bool
	Q1       bool
	Q2       bool
	LostPart bool
}

// RandomCebitToggles draws four independent uniform booleans from r.
func RandomCebitToggles(r *rand.Rand) CebitToggles {
	return CebitToggles{
		StateOK:  r.IntN(2) == 1,
		Q1:       r.IntN(2) == 1,
		Q2:       r.IntN(2) == 1,
		LostPart: r.IntN(2) == 1,
	}
}

// Apply writes the toggles into a Cebit state.
func (t CebitToggles) Apply(s *State) {
	s.Set(FieldStateOK, t.StateOK)
	s.Set(FieldQ1, t.Q1)
	s.Set(FieldQ2, t.Q2)
	s.Set(FieldLostPart, t.LostPart)
}
