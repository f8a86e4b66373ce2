package negotiation

import (
	"github.com/shopspring/decimal"

	"hermes/pkg/errors"
)

// AdviceFunc is the seam for an external reasoning system. It receives a
// state snapshot and the acting role and may suggest the next offer;
// returning ok=false means no suggestion and the formulaic policy applies.
// Implementations must be synchronous; a slow or unavailable provider is
// expected to give up and return ok=false rather than stall the round.
type AdviceFunc func(state State, actor Role) (decimal.Decimal, bool)

// OfferProposal is the policy's computed next offer plus the bookkeeping
// the engine records on the transcript.
type OfferProposal struct {
	Price decimal.Decimal

	// Clamped is set when the raw offer had to be pulled back to honor
	// monotonicity or the reservation threshold. Violation then carries
	// the rejected invariant, wrapping errors.ErrInvariantViolation.
	Clamped   bool
	Violation error

	// BAFO is set when this move consumed the agent's single
	// best-and-final closing adjustment.
	BAFO bool
}

// OfferPolicy computes an agent's next offer from its profile, the round
// phase and the opponent's estimated patience.
//
// Concessions are anchored: the base move is a fraction of the gap between
// the agent's own opening offer and the opponent's current offer, scaled
// by a phase multiplier, the patience modulation and the style factor.
type OfferPolicy struct {
	// OpeningMultiplier scales concessions during tentative opening
	// probing; MiddleMultiplier during the firmer middle phase. Closing
	// rounds use the convergence rule and, once an agent has spent its
	// best-and-final adjustment, fall back to MiddleMultiplier.
	OpeningMultiplier decimal.Decimal
	MiddleMultiplier  decimal.Decimal

	// BAFOFraction is the share of the opening gap below which the
	// closing-phase live gap triggers the midpoint jump.
	BAFOFraction decimal.Decimal

	// ClosingFraction is the share of the live gap conceded by the
	// anchored closing move when the gap is still too wide for a midpoint
	// jump.
	ClosingFraction decimal.Decimal

	// Advice, when set, is consulted before the formulaic computation.
	Advice AdviceFunc
}

// NewOfferPolicy returns a policy with the default phase multipliers and
// closing thresholds.
func NewOfferPolicy() *OfferPolicy {
	return &OfferPolicy{
		OpeningMultiplier: decimal.NewFromFloat(0.5),
		MiddleMultiplier:  decimal.NewFromInt(1),
		BAFOFraction:      decimal.NewFromFloat(0.05),
		ClosingFraction:   decimal.NewFromFloat(0.5),
	}
}

// NextOffer computes the acting agent's next offer. own and opponent are
// that agent's and the other agent's transcript slices; estimate is the
// opponent's current patience classification.
func (p *OfferPolicy) NextOffer(profile Profile, st *State, own, opponent []OfferEvent, phase Phase, estimate PatienceEstimate) OfferProposal {
	if p.Advice != nil {
		if suggested, ok := p.Advice(st.Snapshot(), profile.Role); ok {
			return p.vet(profile, own, suggested, false)
		}
	}

	// First offer is the profile's opening offer, no concession applied.
	if len(own) == 0 {
		return p.vet(profile, own, profile.OpeningOffer, false)
	}
	previous := own[len(own)-1].Price

	// Without an opposing offer there is nothing to concede toward.
	if len(opponent) == 0 {
		return OfferProposal{Price: previous}
	}
	opposing := opponent[len(opponent)-1].Price

	if phase == PhaseClosing && !st.bafoSpent(profile.Role) {
		price, bafo := p.closingMove(profile, own, opponent, estimate)
		return p.vet(profile, own, price, bafo)
	}

	concession := p.concession(profile, opposing, p.phaseMultiplier(phase), estimate)
	return p.vet(profile, own, advance(profile.Role, previous, concession), false)
}

// concession computes the modulated move size: anchored gap x concession
// rate x phase multiplier, scaled by patience and style.
func (p *OfferPolicy) concession(profile Profile, opposing decimal.Decimal, multiplier decimal.Decimal, estimate PatienceEstimate) decimal.Decimal {
	gap := profile.OpeningOffer.Sub(opposing).Abs()
	base := gap.Mul(profile.ConcessionRate).Mul(multiplier)
	base = base.Mul(patienceFactor(profile.PatienceSensitivity, estimate.Level))
	return base.Mul(styleFactor(profile.Style, estimate.Level))
}

// closingMove implements the best-and-final convergence rule: a midpoint
// jump once the live gap is inside the BAFO threshold, otherwise one
// anchored concession of ClosingFraction of the live gap. Either variant
// consumes the agent's single closing adjustment.
func (p *OfferPolicy) closingMove(profile Profile, own, opponent []OfferEvent, estimate PatienceEstimate) (decimal.Decimal, bool) {
	previous := own[len(own)-1].Price
	opposing := opponent[len(opponent)-1].Price

	liveGap := opposing.Sub(previous).Abs()
	openingGap := own[0].Price.Sub(opponent[0].Price).Abs()
	threshold := openingGap.Mul(p.BAFOFraction)

	if liveGap.LessThanOrEqual(threshold) {
		midpoint := previous.Add(opposing).Div(decimal.NewFromInt(2))
		return midpoint, true
	}

	concession := liveGap.Mul(p.ClosingFraction)
	concession = concession.Mul(patienceFactor(profile.PatienceSensitivity, estimate.Level))
	concession = concession.Mul(styleFactor(profile.Style, estimate.Level))
	return advance(profile.Role, previous, concession), true
}

func (p *OfferPolicy) phaseMultiplier(phase Phase) decimal.Decimal {
	if phase == PhaseOpening {
		return p.OpeningMultiplier
	}
	return p.MiddleMultiplier
}

// vet enforces the hard invariants on a candidate price: the offer never
// crosses the agent's own reservation threshold and never moves backward.
// A violating candidate is clamped to the nearest valid value and flagged,
// so the transcript remains an honest record.
func (p *OfferPolicy) vet(profile Profile, own []OfferEvent, price decimal.Decimal, bafo bool) OfferProposal {
	var violation error

	switch profile.Role {
	case RoleBuyer:
		if price.GreaterThan(profile.ReservationThreshold) {
			violation = errors.Wrapf(errors.ErrInvariantViolation,
				"buyer offer %s above ceiling %s", price, profile.ReservationThreshold)
			price = profile.ReservationThreshold
		}
	case RoleSeller:
		if price.LessThan(profile.ReservationThreshold) {
			violation = errors.Wrapf(errors.ErrInvariantViolation,
				"seller offer %s below floor %s", price, profile.ReservationThreshold)
			price = profile.ReservationThreshold
		}
	}

	if len(own) > 0 {
		previous := own[len(own)-1].Price
		if profile.Role == RoleBuyer && price.LessThan(previous) {
			violation = errors.Wrapf(errors.ErrInvariantViolation,
				"buyer offer %s moved backward from %s", price, previous)
			price = previous
		}
		if profile.Role == RoleSeller && price.GreaterThan(previous) {
			violation = errors.Wrapf(errors.ErrInvariantViolation,
				"seller offer %s moved backward from %s", price, previous)
			price = previous
		}
	}

	return OfferProposal{Price: price, Clamped: violation != nil, Violation: violation, BAFO: bafo}
}

// advance moves a price toward the opponent: buyers concede upward,
// sellers downward.
func advance(role Role, previous, concession decimal.Decimal) decimal.Decimal {
	if role == RoleBuyer {
		return previous.Add(concession)
	}
	return previous.Sub(concession)
}

// patienceFactor scales a concession by the opponent's classification:
// mirror a patient opponent's slowness, press an urgent one.
func patienceFactor(sensitivity decimal.Decimal, level PatienceLevel) decimal.Decimal {
	one := decimal.NewFromInt(1)
	switch level {
	case PatiencePatient:
		return one.Sub(sensitivity)
	case PatienceUrgent:
		return one.Add(sensitivity)
	default:
		return one
	}
}
