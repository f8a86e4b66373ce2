package negotiation

import (
	"github.com/shopspring/decimal"
)

// PatienceLevel classifies how slowly an opponent has been moving.
type PatienceLevel string

const (
	PatiencePatient PatienceLevel = "patient"
	PatienceNeutral PatienceLevel = "neutral"
	PatienceUrgent  PatienceLevel = "urgent"
)

// String returns the string representation of the level
func (l PatienceLevel) String() string {
	return string(l)
}

// PatienceEstimate is a transient classification of an opponent's urgency,
// recomputed fresh from history every round and never stored.
type PatienceEstimate struct {
	Level PatienceLevel

	// Magnitude is a confidence-like strength of the classification in
	// [0, 1]; zero for neutral.
	Magnitude decimal.Decimal
}

// PatienceEstimator classifies urgency from the relative size of an actor's
// recent concessions. Deltas are normalized by the actor's remaining
// gap-to-threshold before each offer, which removes scenario-scale
// sensitivity: a $5 concession is slow against a $300 gap but fast against
// a $20 one.
type PatienceEstimator struct {
	// Window is how many of the actor's latest offers are considered.
	Window int

	// LowThreshold and HighThreshold bound the neutral band of the mean
	// normalized concession: below low is patient, above high is urgent.
	LowThreshold  decimal.Decimal
	HighThreshold decimal.Decimal
}

// NewPatienceEstimator returns an estimator with the default window of two
// offers and a 5%/25% neutral band.
func NewPatienceEstimator() PatienceEstimator {
	return PatienceEstimator{
		Window:        2,
		LowThreshold:  decimal.NewFromFloat(0.05),
		HighThreshold: decimal.NewFromFloat(0.25),
	}
}

// Estimate classifies the patience of the actor whose transcript slice and
// reservation threshold are given. With fewer than two observed offers it
// returns the no-information neutral default. A latest delta of exactly
// zero always classifies as patient: a non-moving opponent is maximally
// patient.
func (e PatienceEstimator) Estimate(history []OfferEvent, reservationThreshold decimal.Decimal) PatienceEstimate {
	if len(history) < 2 {
		return PatienceEstimate{Level: PatienceNeutral, Magnitude: decimal.Decimal{}}
	}

	if history[len(history)-1].Delta.IsZero() {
		return PatienceEstimate{Level: PatiencePatient, Magnitude: decimal.NewFromInt(1)}
	}

	// The first offer carries no concession, so usable deltas start at the
	// second offer.
	first := len(history) - e.Window
	if first < 1 {
		first = 1
	}

	sum := decimal.Decimal{}
	count := 0
	for _, ev := range history[first:] {
		// Remaining gap before this offer, reconstructed from the offer
		// itself: previous price = price - delta.
		previous := ev.Price.Sub(ev.Delta)
		gap := reservationThreshold.Sub(previous).Abs()
		if gap.IsZero() {
			count++
			continue
		}
		sum = sum.Add(ev.Delta.Abs().Div(gap))
		count++
	}
	if count == 0 {
		return PatienceEstimate{Level: PatienceNeutral, Magnitude: decimal.Decimal{}}
	}

	mean := sum.Div(decimal.NewFromInt(int64(count)))

	switch {
	case mean.LessThan(e.LowThreshold):
		magnitude := e.LowThreshold.Sub(mean).Div(e.LowThreshold)
		return PatienceEstimate{Level: PatiencePatient, Magnitude: magnitude}
	case mean.GreaterThan(e.HighThreshold):
		magnitude := mean.Sub(e.HighThreshold).Div(e.HighThreshold)
		if magnitude.GreaterThan(decimal.NewFromInt(1)) {
			magnitude = decimal.NewFromInt(1)
		}
		return PatienceEstimate{Level: PatienceUrgent, Magnitude: magnitude}
	default:
		return PatienceEstimate{Level: PatienceNeutral, Magnitude: decimal.Decimal{}}
	}
}
