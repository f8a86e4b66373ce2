package negotiation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome is the terminal classification of a negotiation.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeDeal     Outcome = "deal"
	OutcomeNoDeal   Outcome = "no_deal"
	OutcomeWalkAway Outcome = "walk_away"
)

// Terminal reports whether the outcome ends the negotiation.
func (o Outcome) Terminal() bool {
	return o == OutcomeDeal || o == OutcomeNoDeal || o == OutcomeWalkAway
}

// String returns the string representation of the outcome
func (o Outcome) String() string {
	return string(o)
}

// OfferEvent is one appended entry of the negotiation transcript.
type OfferEvent struct {
	Round int             `json:"round"`
	Actor Role            `json:"actor"`
	Price decimal.Decimal `json:"price"`

	// Delta is the signed change from this actor's previous offer,
	// zero for the actor's first offer.
	Delta decimal.Decimal `json:"delta"`

	// Clamped marks an offer that had to be pulled back to the nearest
	// valid value to honor monotonicity or the reservation threshold.
	Clamped bool `json:"clamped,omitempty"`
}

// State is the single mutable record of a running negotiation. Only the
// engine (and the policy it drives) mutate it; every other component reads.
type State struct {
	ID         uuid.UUID    `json:"id"`
	MaxRounds  int          `json:"max_rounds"`
	Round      int          `json:"round"`
	Transcript []OfferEvent `json:"transcript"`
	Outcome    Outcome      `json:"outcome"`

	// DealPrice is set only when Outcome is OutcomeDeal.
	DealPrice decimal.Decimal `json:"deal_price"`

	lastBuyer  decimal.Decimal
	lastSeller decimal.Decimal
	buyerSeen  bool
	sellerSeen bool
	buyerBAFO  bool
	sellerBAFO bool
}

func newState(maxRounds int) *State {
	return &State{
		ID:        uuid.New(),
		MaxRounds: maxRounds,
		Outcome:   OutcomePending,
	}
}

// LastOffer returns the actor's most recent offer, if it has made one.
func (s *State) LastOffer(role Role) (decimal.Decimal, bool) {
	if role == RoleBuyer {
		return s.lastBuyer, s.buyerSeen
	}
	return s.lastSeller, s.sellerSeen
}

// History returns the ordered transcript slice for one actor.
func (s *State) History(role Role) []OfferEvent {
	events := make([]OfferEvent, 0, len(s.Transcript)/2+1)
	for _, ev := range s.Transcript {
		if ev.Actor == role {
			events = append(events, ev)
		}
	}
	return events
}

// Gap returns the absolute distance between the two latest offers,
// defined only once both sides have offered.
func (s *State) Gap() (decimal.Decimal, bool) {
	if !s.buyerSeen || !s.sellerSeen {
		return decimal.Decimal{}, false
	}
	return s.lastSeller.Sub(s.lastBuyer).Abs(), true
}

// Snapshot returns a defensive copy safe to hand to external collaborators
// such as advice hooks; mutating it never touches the live state.
func (s *State) Snapshot() State {
	cp := *s
	cp.Transcript = make([]OfferEvent, len(s.Transcript))
	copy(cp.Transcript, s.Transcript)
	return cp
}

func (s *State) appendOffer(ev OfferEvent) {
	s.Transcript = append(s.Transcript, ev)
	switch ev.Actor {
	case RoleBuyer:
		s.lastBuyer = ev.Price
		s.buyerSeen = true
	case RoleSeller:
		s.lastSeller = ev.Price
		s.sellerSeen = true
	}
}

func (s *State) bafoSpent(role Role) bool {
	if role == RoleBuyer {
		return s.buyerBAFO
	}
	return s.sellerBAFO
}

func (s *State) markBAFOSpent(role Role) {
	if role == RoleBuyer {
		s.buyerBAFO = true
		return
	}
	s.sellerBAFO = true
}

func (s *State) close(outcome Outcome, price decimal.Decimal) {
	if s.Outcome.Terminal() {
		return
	}
	s.Outcome = outcome
	if outcome == OutcomeDeal {
		s.DealPrice = price
	}
}
