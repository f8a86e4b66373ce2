// Package personality loads negotiation scenarios: the product being
// haggled over and the personality profile of each side. Scenario files
// are JSON or YAML; opening offers may be given outright or derived from
// the product's base market price.
package personality

import (
	"github.com/shopspring/decimal"

	"hermes/internal/negotiation"
	"hermes/pkg/errors"
)

// Product describes what is on the table. The negotiation core never
// reads it; it anchors derived opening offers and feeds the report.
type Product struct {
	Name            string            `json:"name" yaml:"name"`
	Category        string            `json:"category" yaml:"category"`
	Quantity        int               `json:"quantity" yaml:"quantity"`
	QualityGrade    string            `json:"quality_grade" yaml:"quality_grade"`
	Origin          string            `json:"origin" yaml:"origin"`
	BaseMarketPrice float64           `json:"base_market_price" yaml:"base_market_price"`
	Attributes      map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Catchphrases are optional flavor lines rendered by the report layer;
// the core emits numbers only. Supported placeholders: {price} and
// {product}.
type Catchphrases struct {
	Opening  string `json:"opening,omitempty" yaml:"opening,omitempty"`
	Standard string `json:"standard,omitempty" yaml:"standard,omitempty"`
	Final    string `json:"final,omitempty" yaml:"final,omitempty"`
}

// ProfileSpec is the file-level shape of one side's personality. Exactly
// one of OpeningOffer or OpeningMultiplier must resolve to a usable
// opening: an explicit offer wins, otherwise the offer is derived as
// base market price x multiplier.
type ProfileSpec struct {
	Name                 string       `json:"name,omitempty" yaml:"name,omitempty"`
	Style                string       `json:"style" yaml:"style"`
	OpeningOffer         float64      `json:"opening_offer,omitempty" yaml:"opening_offer,omitempty"`
	OpeningMultiplier    float64      `json:"opening_multiplier,omitempty" yaml:"opening_multiplier,omitempty"`
	ReservationThreshold float64      `json:"reservation_threshold" yaml:"reservation_threshold"`
	ConcessionRate       float64      `json:"concession_rate" yaml:"concession_rate"`
	PatienceSensitivity  float64      `json:"patience_sensitivity" yaml:"patience_sensitivity"`
	Catchphrases         Catchphrases `json:"catchphrases,omitempty" yaml:"catchphrases,omitempty"`
}

// Scenario is one loadable negotiation setup.
type Scenario struct {
	Name      string      `json:"name" yaml:"name"`
	Product   Product     `json:"product" yaml:"product"`
	MaxRounds int         `json:"max_rounds" yaml:"max_rounds"`
	Buyer     ProfileSpec `json:"buyer" yaml:"buyer"`
	Seller    ProfileSpec `json:"seller" yaml:"seller"`
}

// profile resolves a ProfileSpec into a core profile for the given role.
func (s *Scenario) profile(spec ProfileSpec, role negotiation.Role) (negotiation.Profile, error) {
	style := negotiation.Style(spec.Style)
	if !style.Valid() {
		return negotiation.Profile{}, errors.Wrapf(errors.ErrUnknownStyle, "%s style %q", role, spec.Style)
	}

	opening, err := s.openingOffer(spec, role)
	if err != nil {
		return negotiation.Profile{}, err
	}

	return negotiation.Profile{
		Role:                 role,
		Style:                style,
		OpeningOffer:         opening,
		ReservationThreshold: decimal.NewFromFloat(spec.ReservationThreshold),
		ConcessionRate:       decimal.NewFromFloat(spec.ConcessionRate),
		PatienceSensitivity:  decimal.NewFromFloat(spec.PatienceSensitivity),
	}, nil
}

func (s *Scenario) openingOffer(spec ProfileSpec, role negotiation.Role) (decimal.Decimal, error) {
	if spec.OpeningOffer > 0 {
		return decimal.NewFromFloat(spec.OpeningOffer), nil
	}
	if spec.OpeningMultiplier > 0 && s.Product.BaseMarketPrice > 0 {
		base := decimal.NewFromFloat(s.Product.BaseMarketPrice)
		return base.Mul(decimal.NewFromFloat(spec.OpeningMultiplier)), nil
	}
	return decimal.Decimal{}, errors.NewValidationError(
		string(role)+".opening_offer",
		"needs an explicit opening offer or an opening multiplier with a product base market price",
		spec.OpeningOffer,
	)
}

// EngineConfig resolves the scenario into a validated negotiation config.
func (s *Scenario) EngineConfig() (negotiation.Config, error) {
	buyer, err := s.profile(s.Buyer, negotiation.RoleBuyer)
	if err != nil {
		return negotiation.Config{}, err
	}
	seller, err := s.profile(s.Seller, negotiation.RoleSeller)
	if err != nil {
		return negotiation.Config{}, err
	}

	cfg := negotiation.Config{
		MaxRounds: s.MaxRounds,
		Buyer:     buyer,
		Seller:    seller,
	}
	if err := cfg.Buyer.Validate(); err != nil {
		return negotiation.Config{}, errors.Wrap(err, "buyer profile")
	}
	if err := cfg.Seller.Validate(); err != nil {
		return negotiation.Config{}, errors.Wrap(err, "seller profile")
	}
	if cfg.MaxRounds <= 0 {
		return negotiation.Config{}, errors.NewValidationError("max_rounds", "must be positive", s.MaxRounds)
	}
	return cfg, nil
}

// Default returns the built-in demonstration scenario: a balanced pair
// haggling over a bulk coffee lot, converging around the seller's floor.
func Default() *Scenario {
	return &Scenario{
		Name: "bulk-coffee",
		Product: Product{
			Name:            "Arabica beans",
			Category:        "coffee",
			Quantity:        100,
			QualityGrade:    "A",
			Origin:          "Yirgacheffe",
			BaseMarketPrice: 450,
		},
		MaxRounds: 10,
		Buyer: ProfileSpec{
			Name:                 "Nadia",
			Style:                "balanced",
			OpeningOffer:         200,
			ReservationThreshold: 420,
			ConcessionRate:       0.15,
			PatienceSensitivity:  0.5,
			Catchphrases: Catchphrases{
				Opening:  "Let's talk {product}. I'll start at {price}.",
				Standard: "I can stretch to {price}.",
				Final:    "{price}. That's as far as my books go.",
			},
		},
		Seller: ProfileSpec{
			Name:                 "Omar",
			Style:                "balanced",
			OpeningOffer:         500,
			ReservationThreshold: 400,
			ConcessionRate:       0.15,
			PatienceSensitivity:  0.5,
			Catchphrases: Catchphrases{
				Opening:  "Finest {product} on the market. {price}, and that's generous.",
				Standard: "For you, {price}.",
				Final:    "{price}. Take it or leave it.",
			},
		},
	}
}
