package negotiation

import (
	"github.com/shopspring/decimal"
)

// Decision is the verdict on the current pair of offers. Outcome is
// OutcomePending when the negotiation should continue.
type Decision struct {
	Outcome Outcome
	Price   decimal.Decimal
}

// DecisionEngine evaluates the offer pair after every appended offer.
//
// Deal fires on the crossing condition: the buyer's latest offer meeting or
// exceeding the seller's latest. The agreed price is the seller's latest
// offer; when the offers cross or tie, the convention here favors the
// seller's standing number rather than a midpoint.
type DecisionEngine struct {
	buyerThreshold  decimal.Decimal
	sellerThreshold decimal.Decimal

	// StagnationLimit is how many consecutive full rounds both actors may
	// sit pinned at their thresholds before an unbridgeable negotiation
	// is abandoned.
	StagnationLimit int
}

// NewDecisionEngine builds a decision engine for one profile pair.
func NewDecisionEngine(buyer, seller Profile) *DecisionEngine {
	return &DecisionEngine{
		buyerThreshold:  buyer.ReservationThreshold,
		sellerThreshold: seller.ReservationThreshold,
		StagnationLimit: 2,
	}
}

// Evaluate returns Deal, WalkAway or a pending continue verdict. The
// round-limit NoDeal is the engine's to declare, not this component's.
func (d *DecisionEngine) Evaluate(st *State) Decision {
	buyer, buyerOk := st.LastOffer(RoleBuyer)
	seller, sellerOk := st.LastOffer(RoleSeller)
	if !buyerOk || !sellerOk {
		return Decision{Outcome: OutcomePending}
	}

	if buyer.GreaterThanOrEqual(seller) {
		return Decision{Outcome: OutcomeDeal, Price: seller}
	}

	if d.unbridgeable() && d.pinnedRounds(st) > d.StagnationLimit {
		return Decision{Outcome: OutcomeWalkAway}
	}

	return Decision{Outcome: OutcomePending}
}

// unbridgeable reports whether the thresholds leave no price both sides
// can accept. Inverted thresholds are a legitimate configuration; they
// just guarantee the negotiation cannot close.
func (d *DecisionEngine) unbridgeable() bool {
	return d.buyerThreshold.LessThan(d.sellerThreshold)
}

// pinnedRounds counts, backward from the latest complete round, how many
// consecutive rounds had both actors offering exactly their thresholds.
func (d *DecisionEngine) pinnedRounds(st *State) int {
	type roundOffers struct {
		buyer, seller decimal.Decimal
		buyerSeen     bool
		sellerSeen    bool
	}

	byRound := make(map[int]*roundOffers, st.Round)
	latest := 0
	for _, ev := range st.Transcript {
		offers, ok := byRound[ev.Round]
		if !ok {
			offers = &roundOffers{}
			byRound[ev.Round] = offers
		}
		switch ev.Actor {
		case RoleBuyer:
			offers.buyer = ev.Price
			offers.buyerSeen = true
		case RoleSeller:
			offers.seller = ev.Price
			offers.sellerSeen = true
		}
		if ev.Round > latest {
			latest = ev.Round
		}
	}

	streak := 0
	for round := latest; round >= 1; round-- {
		offers, ok := byRound[round]
		if !ok || !offers.buyerSeen || !offers.sellerSeen {
			break
		}
		if !offers.buyer.Equal(d.buyerThreshold) || !offers.seller.Equal(d.sellerThreshold) {
			break
		}
		streak++
	}
	return streak
}
