package advisor

import (
	"fmt"
	"strings"

	"hermes/internal/negotiation"
	"hermes/internal/personality"
)

// buildSystemPrompt describes the acting agent's side of the table: its
// personality, the product and its hard limit. The opponent's threshold
// is never disclosed.
func buildSystemPrompt(scenario *personality.Scenario, actor negotiation.Role) string {
	spec := scenario.Buyer
	limit := "Your budget ceiling"
	if actor == negotiation.RoleSeller {
		spec = scenario.Seller
		limit = "Your minimum acceptable price"
	}

	name := spec.Name
	if name == "" {
		name = string(actor)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the %s in a multi-round price negotiation.\n", name, actor)
	fmt.Fprintf(&b, "Your negotiation style: %s.\n", spec.Style)
	fmt.Fprintf(&b, "Product: %s (%s), quantity %d, quality %s, origin %s, base market price %.2f.\n",
		scenario.Product.Name, scenario.Product.Category, scenario.Product.Quantity,
		scenario.Product.QualityGrade, scenario.Product.Origin, scenario.Product.BaseMarketPrice)
	fmt.Fprintf(&b, "%s: %.2f. Never propose a price beyond it.\n", limit, spec.ReservationThreshold)
	b.WriteString("Suggest your next offer. Respond with exactly one JSON object of the form {\"price\": <number>} and nothing else.")
	return b.String()
}

// buildRoundPrompt summarizes the live state: round position and both
// sides' offer histories in transcript order.
func buildRoundPrompt(state negotiation.State, actor negotiation.Role) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d of %d.\n", state.Round, state.MaxRounds)

	if len(state.Transcript) == 0 {
		b.WriteString("No offers yet; open the negotiation.")
		return b.String()
	}

	b.WriteString("Offers so far:\n")
	for _, ev := range state.Transcript {
		fmt.Fprintf(&b, "  round %d, %s: %s\n", ev.Round, ev.Actor, ev.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "You are the %s. Give your next offer.", actor)
	return b.String()
}
