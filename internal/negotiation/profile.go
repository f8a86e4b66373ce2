// Package negotiation implements the two-party price negotiation core:
// personality profiles, patience estimation, phase-aware offer policy,
// termination decisions and the round-loop engine that ties them together.
//
// The core is deterministic and performs no I/O. External reasoning systems
// attach through the AdviceFunc seam; rendering and persistence of the
// transcript belong to collaborators.
package negotiation

import (
	"github.com/shopspring/decimal"

	"hermes/pkg/errors"
)

// Role identifies the side of the table an agent negotiates from.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Opponent returns the other side of the table.
func (r Role) Opponent() Role {
	if r == RoleBuyer {
		return RoleSeller
	}
	return RoleBuyer
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Style is a closed set of concession temperaments. Behavior differences
// between styles live entirely in styleTable; adding a style is a new
// constant plus one table row.
type Style string

const (
	StyleAggressive    Style = "aggressive"
	StyleDefensive     Style = "defensive"
	StyleBalanced      Style = "balanced"
	StyleOpportunistic Style = "opportunistic"
)

// Valid reports whether the style is one of the recognized values.
func (s Style) Valid() bool {
	_, ok := styleTable[s]
	return ok
}

// String returns the string representation of the style
func (s Style) String() string {
	return string(s)
}

// styleBehavior holds the multipliers a style applies to the agent's own
// concession. urgentFactor replaces ownFactor while the opponent is
// classified as urgent.
type styleBehavior struct {
	ownFactor    decimal.Decimal
	urgentFactor decimal.Decimal
}

var styleTable = map[Style]styleBehavior{
	StyleAggressive:    {ownFactor: decimal.NewFromFloat(1.25), urgentFactor: decimal.NewFromFloat(1.25)},
	StyleDefensive:     {ownFactor: decimal.NewFromFloat(0.6), urgentFactor: decimal.NewFromFloat(0.6)},
	StyleBalanced:      {ownFactor: decimal.NewFromInt(1), urgentFactor: decimal.NewFromInt(1)},
	StyleOpportunistic: {ownFactor: decimal.NewFromInt(1), urgentFactor: decimal.NewFromFloat(1.25)},
}

// styleFactor resolves the concession multiplier for a style given the
// opponent's current patience classification.
func styleFactor(style Style, opponent PatienceLevel) decimal.Decimal {
	behavior, ok := styleTable[style]
	if !ok {
		return decimal.NewFromInt(1)
	}
	if opponent == PatienceUrgent {
		return behavior.urgentFactor
	}
	return behavior.ownFactor
}

// Profile holds the static personality traits that govern an agent's
// concession behavior. A profile is immutable once a negotiation starts
// and is owned exclusively by its agent.
type Profile struct {
	Role  Role  `json:"role"`
	Style Style `json:"style"`

	// OpeningOffer is the agent's first offer, before any concession.
	OpeningOffer decimal.Decimal `json:"opening_offer"`

	// ReservationThreshold is the hard limit the agent's offers may never
	// cross: a ceiling for the buyer, a floor for the seller.
	ReservationThreshold decimal.Decimal `json:"reservation_threshold"`

	// ConcessionRate is the base fraction of the anchored gap conceded per
	// round, in (0, 1].
	ConcessionRate decimal.Decimal `json:"concession_rate"`

	// PatienceSensitivity controls how strongly the perceived patience of
	// the opponent scales concessions, in [0, 1].
	PatienceSensitivity decimal.Decimal `json:"patience_sensitivity"`
}

// Validate checks every field and collects all problems, so a caller sees
// the full list at once rather than fixing them one by one.
func (p Profile) Validate() error {
	multi := &errors.MultiError{}

	if !p.Role.Valid() {
		multi.Add(errors.NewValidationError("role", "must be buyer or seller", p.Role))
	}
	if !p.Style.Valid() {
		multi.Add(errors.NewValidationError("style", "unknown personality style", p.Style))
	}
	if !p.OpeningOffer.IsPositive() {
		multi.Add(errors.NewValidationError("opening_offer", "must be positive", p.OpeningOffer))
	}
	if !p.ReservationThreshold.IsPositive() {
		multi.Add(errors.NewValidationError("reservation_threshold", "must be positive", p.ReservationThreshold))
	}
	if !p.ConcessionRate.IsPositive() || p.ConcessionRate.GreaterThan(decimal.NewFromInt(1)) {
		multi.Add(errors.NewValidationError("concession_rate", "must be in (0, 1]", p.ConcessionRate))
	}
	if p.PatienceSensitivity.IsNegative() || p.PatienceSensitivity.GreaterThan(decimal.NewFromInt(1)) {
		multi.Add(errors.NewValidationError("patience_sensitivity", "must be in [0, 1]", p.PatienceSensitivity))
	}

	// An opening offer already past the agent's own threshold makes the
	// very first offer a clamp violation.
	if p.Role == RoleBuyer && p.OpeningOffer.GreaterThan(p.ReservationThreshold) {
		multi.Add(errors.NewValidationError("opening_offer", "buyer opening offer exceeds its reservation threshold", p.OpeningOffer))
	}
	if p.Role == RoleSeller && p.OpeningOffer.LessThan(p.ReservationThreshold) {
		multi.Add(errors.NewValidationError("opening_offer", "seller opening offer is below its reservation threshold", p.OpeningOffer))
	}

	return multi.ToError()
}
