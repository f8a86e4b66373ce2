// Package report renders negotiation transcripts and batch summaries for
// humans. The core produces numbers; everything presentational, including
// the personality catchphrases, lives here.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"hermes/internal/negotiation"
	"hermes/internal/personality"
	"hermes/internal/simulation"
	"hermes/pkg/errors"
)

// Reporter writes human-readable renderings of negotiation artifacts.
type Reporter struct {
	w io.Writer
}

// New creates a reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Render prints the full transcript as a table followed by the outcome
// line. When the scenario carries catchphrases, each offer row gets the
// actor's flavor line for that stage of the negotiation.
func (r *Reporter) Render(scenario *personality.Scenario, result *negotiation.Result) error {
	fmt.Fprintf(r.w, "Negotiation %s: %s (%d x %s, grade %s)\n",
		result.ID, scenario.Product.Name, scenario.Product.Quantity,
		scenario.Product.Category, scenario.Product.QualityGrade)

	tw := tabwriter.NewWriter(r.w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tACTOR\tPRICE\tDELTA\t")
	for i, ev := range result.Transcript {
		flags := ""
		if ev.Clamped {
			flags = "clamped"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			ev.Round, ev.Actor, money(ev.Price), money(ev.Delta), flags)
		if line := r.catchphrase(scenario, result, i); line != "" {
			fmt.Fprintf(tw, "\t\t\t\t%s\n", line)
		}
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "render transcript")
	}

	switch result.Outcome {
	case negotiation.OutcomeDeal:
		fmt.Fprintf(r.w, "\nDeal closed at %s after %d round(s).\n", money(result.Price), result.Rounds)
	case negotiation.OutcomeWalkAway:
		fmt.Fprintf(r.w, "\nWalked away after %d round(s); the thresholds left no common ground.\n", result.Rounds)
	case negotiation.OutcomeNoDeal:
		fmt.Fprintf(r.w, "\nNo deal within %d round(s).\n", result.Rounds)
	default:
		fmt.Fprintf(r.w, "\nNegotiation still pending at round %d.\n", result.Rounds)
	}
	return nil
}

// RenderSummary prints the aggregate view of a batch run.
func (r *Reporter) RenderSummary(scenario *personality.Scenario, summary *simulation.Summary) error {
	fmt.Fprintf(r.w, "Batch %q: %s run(s) in %s\n",
		scenario.Name, humanize.Comma(int64(summary.Runs)), summary.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(r.w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTCOME\tCOUNT\t")
	for _, outcome := range []negotiation.Outcome{
		negotiation.OutcomeDeal,
		negotiation.OutcomeNoDeal,
		negotiation.OutcomeWalkAway,
	} {
		if count, ok := summary.Outcomes[outcome]; ok {
			fmt.Fprintf(tw, "%s\t%s\t\n", outcome, humanize.Comma(int64(count)))
		}
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "render summary")
	}

	fmt.Fprintf(r.w, "Deal rate %s%%, average %s round(s)",
		summary.DealRate().Mul(decimal.NewFromInt(100)).StringFixed(1),
		summary.AvgRounds.StringFixed(1))
	if summary.Outcomes[negotiation.OutcomeDeal] > 0 {
		fmt.Fprintf(r.w, ", average deal price %s", money(summary.AvgDealPrice))
	}
	fmt.Fprintln(r.w)
	return nil
}

// WriteJSON exports the result as indented JSON, the machine-readable
// counterpart of Render.
func (r *Reporter) WriteJSON(result *negotiation.Result) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(err, "encode result")
	}
	return nil
}

// catchphrase picks the flavor line matching the offer's stage: the
// actor's first offer gets the opening line, the last event of a closed
// deal gets the final line, anything else the standard one.
func (r *Reporter) catchphrase(scenario *personality.Scenario, result *negotiation.Result, idx int) string {
	ev := result.Transcript[idx]
	spec := scenario.Buyer
	if ev.Actor == negotiation.RoleSeller {
		spec = scenario.Seller
	}

	phrases := spec.Catchphrases
	template := phrases.Standard
	if idx == firstIndex(result.Transcript, ev.Actor) {
		template = phrases.Opening
	} else if idx == lastIndex(result.Transcript, ev.Actor) && result.Outcome.Terminal() {
		template = phrases.Final
	}
	if template == "" {
		return ""
	}

	line := strings.ReplaceAll(template, "{price}", money(ev.Price))
	line = strings.ReplaceAll(line, "{product}", scenario.Product.Name)
	return line
}

func firstIndex(transcript []negotiation.OfferEvent, actor negotiation.Role) int {
	for i, ev := range transcript {
		if ev.Actor == actor {
			return i
		}
	}
	return -1
}

func lastIndex(transcript []negotiation.OfferEvent, actor negotiation.Role) int {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Actor == actor {
			return i
		}
	}
	return -1
}

// money formats a price with thousands separators and two decimals.
func money(price decimal.Decimal) string {
	return humanize.CommafWithDigits(price.InexactFloat64(), 2)
}
