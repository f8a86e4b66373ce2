package negotiation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/pkg/errors"
)

func neutral() PatienceEstimate {
	return PatienceEstimate{Level: PatienceNeutral}
}

func TestOfferPolicy_FirstOfferIsOpening(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	got := p.NextOffer(buyer, newState(10), nil, nil, PhaseOpening, neutral())

	assert.True(t, got.Price.Equal(buyer.OpeningOffer))
	assert.False(t, got.Clamped)
	assert.False(t, got.BAFO)
}

func TestOfferPolicy_OpeningConcessionIsTentative(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200)
	opponent := offerSequence(RoleSeller, 500)

	// Anchored gap 300 x rate 0.15 x opening 0.5 = 22.50.
	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseOpening, neutral())
	assert.True(t, got.Price.Equal(decimal.NewFromFloat(222.5)),
		"expected 222.50, got %s", got.Price)
}

func TestOfferPolicy_MiddleConcessionIsFirmer(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200)
	opponent := offerSequence(RoleSeller, 500)

	// Anchored gap 300 x rate 0.15 x middle 1.0 = 45.
	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())
	assert.True(t, got.Price.Equal(decimal.NewFromInt(245)),
		"expected 245, got %s", got.Price)
}

func TestOfferPolicy_PatienceModulation(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200)
	opponent := offerSequence(RoleSeller, 500)

	patient := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle,
		PatienceEstimate{Level: PatiencePatient, Magnitude: decimal.NewFromInt(1)})
	urgent := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle,
		PatienceEstimate{Level: PatienceUrgent, Magnitude: decimal.NewFromInt(1)})
	plain := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())

	// Sensitivity 0.5: mirror a patient opponent at half speed, press an
	// urgent one at one and a half.
	assert.True(t, patient.Price.Equal(decimal.NewFromFloat(222.5)), "got %s", patient.Price)
	assert.True(t, plain.Price.Equal(decimal.NewFromInt(245)), "got %s", plain.Price)
	assert.True(t, urgent.Price.Equal(decimal.NewFromFloat(267.5)), "got %s", urgent.Price)
}

func TestOfferPolicy_StyleModulation(t *testing.T) {
	p := NewOfferPolicy()
	own := offerSequence(RoleBuyer, 200)
	opponent := offerSequence(RoleSeller, 500)

	offerWith := func(style Style, est PatienceEstimate) decimal.Decimal {
		profile := validBuyer()
		profile.Style = style
		profile.PatienceSensitivity = decimal.Decimal{}
		return p.NextOffer(profile, newState(10), own, opponent, PhaseMiddle, est).Price
	}

	aggressive := offerWith(StyleAggressive, neutral())
	balanced := offerWith(StyleBalanced, neutral())
	defensive := offerWith(StyleDefensive, neutral())

	assert.True(t, aggressive.GreaterThan(balanced))
	assert.True(t, balanced.GreaterThan(defensive))

	// Opportunistic moves like balanced until the opponent is urgent,
	// then like aggressive.
	assert.True(t, offerWith(StyleOpportunistic, neutral()).Equal(balanced))
	urgentEstimate := PatienceEstimate{Level: PatienceUrgent, Magnitude: decimal.NewFromInt(1)}
	assert.True(t, offerWith(StyleOpportunistic, urgentEstimate).Equal(offerWith(StyleAggressive, urgentEstimate)))
}

func TestOfferPolicy_ThresholdClampFlagsEvent(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200, 410)
	opponent := offerSequence(RoleSeller, 500, 480)

	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())

	assert.True(t, got.Price.Equal(buyer.ReservationThreshold),
		"expected clamp to 420, got %s", got.Price)
	assert.True(t, got.Clamped)
}

func TestOfferPolicy_SellerClampsAtFloor(t *testing.T) {
	p := NewOfferPolicy()
	seller := validSeller()

	own := offerSequence(RoleSeller, 500, 410)
	opponent := offerSequence(RoleBuyer, 200, 260)

	got := p.NextOffer(seller, newState(10), own, opponent, PhaseMiddle, neutral())

	assert.True(t, got.Price.Equal(seller.ReservationThreshold),
		"expected clamp to 400, got %s", got.Price)
	assert.True(t, got.Clamped)
}

func TestOfferPolicy_BAFOMidpointJump(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	// Opening gap 300, live gap 10: inside the 5% best-and-final band.
	own := offerSequence(RoleBuyer, 200, 390)
	opponent := offerSequence(RoleSeller, 500, 400)

	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseClosing, neutral())

	assert.True(t, got.Price.Equal(decimal.NewFromInt(395)),
		"expected midpoint 395, got %s", got.Price)
	assert.True(t, got.BAFO)
}

func TestOfferPolicy_ClosingAnchoredConcession(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	// Live gap 100 is far outside the best-and-final band; the closing
	// move concedes half of it.
	own := offerSequence(RoleBuyer, 200, 300)
	opponent := offerSequence(RoleSeller, 500, 400)

	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseClosing, neutral())

	assert.True(t, got.Price.Equal(decimal.NewFromInt(350)),
		"expected 350, got %s", got.Price)
	assert.True(t, got.BAFO)
}

func TestOfferPolicy_BAFOSpentRevertsToFormula(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	st := newState(10)
	st.markBAFOSpent(RoleBuyer)

	own := offerSequence(RoleBuyer, 200, 300)
	opponent := offerSequence(RoleSeller, 500, 400)

	// Incremental formula with the middle multiplier: gap |200-400| x
	// 0.15 = 30.
	got := p.NextOffer(buyer, st, own, opponent, PhaseClosing, neutral())

	assert.True(t, got.Price.Equal(decimal.NewFromInt(330)),
		"expected 330, got %s", got.Price)
	assert.False(t, got.BAFO)
}

// Clamped proposals must carry the rejected invariant so the engine can
// log an honest record; clean proposals carry none.
func TestOfferPolicy_ClampRecordsInvariantViolation(t *testing.T) {
	p := NewOfferPolicy()

	buyer := validBuyer()
	own := offerSequence(RoleBuyer, 200, 410)
	opponent := offerSequence(RoleSeller, 500, 480)
	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())
	require.True(t, got.Clamped)
	require.Error(t, got.Violation)
	assert.True(t, errors.Is(got.Violation, errors.ErrInvariantViolation))

	seller := validSeller()
	own = offerSequence(RoleSeller, 500, 410)
	opponent = offerSequence(RoleBuyer, 200, 260)
	got = p.NextOffer(seller, newState(10), own, opponent, PhaseMiddle, neutral())
	require.True(t, got.Clamped)
	assert.True(t, errors.Is(got.Violation, errors.ErrInvariantViolation))

	got = p.NextOffer(validBuyer(), newState(10), nil, nil, PhaseOpening, neutral())
	assert.False(t, got.Clamped)
	assert.NoError(t, got.Violation)
}

func TestOfferPolicy_AdviceAccepted(t *testing.T) {
	p := NewOfferPolicy()
	p.Advice = func(State, Role) (decimal.Decimal, bool) {
		return decimal.NewFromInt(333), true
	}
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200, 300)
	opponent := offerSequence(RoleSeller, 500, 400)

	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())

	assert.True(t, got.Price.Equal(decimal.NewFromInt(333)))
	assert.False(t, got.Clamped)
}

func TestOfferPolicy_AdviceClampedWhenViolating(t *testing.T) {
	p := NewOfferPolicy()
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200, 300)
	opponent := offerSequence(RoleSeller, 500, 400)

	// A suggestion past the buyer's ceiling is pulled back to it.
	p.Advice = func(State, Role) (decimal.Decimal, bool) {
		return decimal.NewFromInt(999), true
	}
	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())
	assert.True(t, got.Price.Equal(buyer.ReservationThreshold))
	assert.True(t, got.Clamped)

	// A suggestion below the previous own offer would walk the buyer
	// backward; it is held at the previous offer instead.
	p.Advice = func(State, Role) (decimal.Decimal, bool) {
		return decimal.NewFromInt(250), true
	}
	got = p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())
	assert.True(t, got.Price.Equal(decimal.NewFromInt(300)),
		"expected hold at 300, got %s", got.Price)
	assert.True(t, got.Clamped)
}

func TestOfferPolicy_AdviceDeclinedFallsBack(t *testing.T) {
	p := NewOfferPolicy()
	p.Advice = func(State, Role) (decimal.Decimal, bool) {
		return decimal.Decimal{}, false
	}
	buyer := validBuyer()

	own := offerSequence(RoleBuyer, 200)
	opponent := offerSequence(RoleSeller, 500)

	got := p.NextOffer(buyer, newState(10), own, opponent, PhaseMiddle, neutral())
	assert.True(t, got.Price.Equal(decimal.NewFromInt(245)),
		"expected the formulaic 245, got %s", got.Price)
}

func TestOfferPolicy_AdviceSeesSnapshot(t *testing.T) {
	p := NewOfferPolicy()

	st := newState(10)
	st.appendOffer(OfferEvent{Round: 1, Actor: RoleSeller, Price: decimal.NewFromInt(500)})

	var seen State
	p.Advice = func(s State, _ Role) (decimal.Decimal, bool) {
		seen = s
		// Mutating the snapshot must not leak into the live state.
		seen.Transcript[0].Price = decimal.NewFromInt(1)
		return decimal.Decimal{}, false
	}

	p.NextOffer(validBuyer(), st, nil, st.History(RoleSeller), PhaseOpening, neutral())

	require.Len(t, seen.Transcript, 1)
	assert.True(t, st.Transcript[0].Price.Equal(decimal.NewFromInt(500)),
		"advice hook mutated the live transcript")
}
