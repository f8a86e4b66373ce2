package negotiation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Config is everything a single negotiation run needs.
type Config struct {
	MaxRounds int
	Buyer     Profile
	Seller    Profile

	// Advice optionally plugs an external reasoning system into the offer
	// policy. Leave nil for the purely formulaic core.
	Advice AdviceFunc

	// StagnationLimit overrides the walk-away stagnation tolerance when
	// positive.
	StagnationLimit int
}

// Result is the sole artifact a negotiation produces: the terminal outcome
// and the full ordered transcript.
type Result struct {
	ID         uuid.UUID       `json:"id"`
	Outcome    Outcome         `json:"outcome"`
	Price      decimal.Decimal `json:"price"`
	Rounds     int             `json:"rounds"`
	Transcript []OfferEvent    `json:"transcript"`
}

// Engine drives the round loop: each round the seller offers first and the
// buyer responds, with a termination check after every offer. One engine
// owns one negotiation; its state is never shared.
type Engine struct {
	cfg       Config
	state     *State
	phases    PhaseClassifier
	estimator PatienceEstimator
	policy    *OfferPolicy
	decisions *DecisionEngine
	log       *logger.Logger
}

// New validates the configuration and seeds the negotiation state. All
// configuration problems are reported at once; nothing in a validated
// negotiation can fail afterward.
func New(cfg Config) (*Engine, error) {
	multi := &errors.MultiError{}

	if cfg.MaxRounds <= 0 {
		multi.Add(errors.NewValidationError("max_rounds", "must be positive", cfg.MaxRounds))
	}
	if cfg.Buyer.Role != RoleBuyer {
		multi.Add(errors.NewValidationError("buyer.role", "must be the buyer role", cfg.Buyer.Role))
	}
	if cfg.Seller.Role != RoleSeller {
		multi.Add(errors.NewValidationError("seller.role", "must be the seller role", cfg.Seller.Role))
	}
	if err := cfg.Buyer.Validate(); err != nil {
		multi.Add(errors.Wrap(err, "buyer profile"))
	}
	if err := cfg.Seller.Validate(); err != nil {
		multi.Add(errors.Wrap(err, "seller profile"))
	}
	if err := multi.ToError(); err != nil {
		return nil, err
	}

	state := newState(cfg.MaxRounds)

	policy := NewOfferPolicy()
	policy.Advice = cfg.Advice

	decisions := NewDecisionEngine(cfg.Buyer, cfg.Seller)
	if cfg.StagnationLimit > 0 {
		decisions.StagnationLimit = cfg.StagnationLimit
	}

	return &Engine{
		cfg:       cfg,
		state:     state,
		phases:    NewPhaseClassifier(),
		estimator: NewPatienceEstimator(),
		policy:    policy,
		decisions: decisions,
		log:       logger.Get().With("negotiation_id", state.ID.String()),
	}, nil
}

// ID returns the negotiation's identifier.
func (e *Engine) ID() uuid.UUID {
	return e.state.ID
}

// Run executes rounds until a terminal outcome or the round limit. The
// only runtime error is context cancellation between rounds; everything
// else resolves to a normal Deal, NoDeal or WalkAway result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.state.Outcome.Terminal() {
		return e.result(), errors.ErrNegotiationClosed
	}

	e.log.Infow("negotiation started",
		"max_rounds", e.cfg.MaxRounds,
		"buyer_style", e.cfg.Buyer.Style,
		"seller_style", e.cfg.Seller.Style,
	)

	for round := 1; round <= e.cfg.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return e.result(), err
		}
		e.state.Round = round

		done := e.playRound(round, RoleSeller) || e.playRound(round, RoleBuyer)
		if done {
			return e.finish(), nil
		}
	}

	e.state.close(OutcomeNoDeal, decimal.Decimal{})
	return e.finish(), nil
}

// playRound lets one actor offer and checks for termination. Returns true
// when the negotiation reached a terminal outcome.
func (e *Engine) playRound(round int, actor Role) bool {
	profile := e.profileFor(actor)
	opponentProfile := e.profileFor(actor.Opponent())

	phase := e.phases.Phase(round, e.cfg.MaxRounds)
	own := e.state.History(actor)
	opponent := e.state.History(actor.Opponent())
	estimate := e.estimator.Estimate(opponent, opponentProfile.ReservationThreshold)

	proposal := e.policy.NextOffer(profile, e.state, own, opponent, phase, estimate)

	delta := decimal.Decimal{}
	if len(own) > 0 {
		delta = proposal.Price.Sub(own[len(own)-1].Price)
	}

	e.state.appendOffer(OfferEvent{
		Round:   round,
		Actor:   actor,
		Price:   proposal.Price,
		Delta:   delta,
		Clamped: proposal.Clamped,
	})
	if proposal.BAFO {
		e.state.markBAFOSpent(actor)
	}
	if proposal.Clamped {
		e.log.Warnw("offer clamped to nearest valid value",
			"round", round,
			"actor", actor,
			"price", proposal.Price.StringFixed(2),
			"error", proposal.Violation,
		)
	}
	e.log.Debugw("offer made",
		"round", round,
		"actor", actor,
		"phase", phase,
		"price", proposal.Price.StringFixed(2),
		"delta", delta.StringFixed(2),
		"opponent_patience", estimate.Level,
	)

	decision := e.decisions.Evaluate(e.state)
	if decision.Outcome.Terminal() {
		e.state.close(decision.Outcome, decision.Price)
		return true
	}
	return false
}

func (e *Engine) profileFor(role Role) Profile {
	if role == RoleBuyer {
		return e.cfg.Buyer
	}
	return e.cfg.Seller
}

func (e *Engine) finish() *Result {
	res := e.result()
	e.log.Infow("negotiation finished",
		"outcome", res.Outcome,
		"rounds", res.Rounds,
		"price", res.Price.StringFixed(2),
	)
	return res
}

// result snapshots the state so callers can never mutate the transcript
// after the outcome is set.
func (e *Engine) result() *Result {
	snap := e.state.Snapshot()
	return &Result{
		ID:         snap.ID,
		Outcome:    snap.Outcome,
		Price:      snap.DealPrice,
		Rounds:     snap.Round,
		Transcript: snap.Transcript,
	}
}
