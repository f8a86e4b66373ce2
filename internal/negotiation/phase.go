package negotiation

// Phase segments the round count into stretches with distinct concession
// behavior.
type Phase string

const (
	PhaseOpening Phase = "opening"
	PhaseMiddle  Phase = "middle"
	PhaseClosing Phase = "closing"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// PhaseClassifier partitions rounds into phases by percentage boundaries
// of the round limit. With the defaults a 10-round negotiation splits into
// rounds 1-4 opening, 5-8 middle and 9-10 closing.
type PhaseClassifier struct {
	// OpeningPct and MiddlePct are cumulative percentage boundaries:
	// rounds up to OpeningPct% of maxRounds are opening, up to MiddlePct%
	// are middle, the rest closing.
	OpeningPct int
	MiddlePct  int
}

// NewPhaseClassifier returns a classifier with the 40/40/20 default split.
func NewPhaseClassifier() PhaseClassifier {
	return PhaseClassifier{OpeningPct: 40, MiddlePct: 80}
}

// Phase maps a round number to its phase. Boundaries round up, so very
// short negotiations may spend every round in opening or middle and
// never reach closing.
func (c PhaseClassifier) Phase(round, maxRounds int) Phase {
	openingEnd := (maxRounds*c.OpeningPct + 99) / 100
	middleEnd := (maxRounds*c.MiddlePct + 99) / 100

	switch {
	case round <= openingEnd:
		return PhaseOpening
	case round <= middleEnd:
		return PhaseMiddle
	default:
		return PhaseClosing
	}
}
