package simulation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/negotiation"
	"hermes/internal/personality"
	"hermes/pkg/errors"
)

func TestRunner_BatchOfDefaultScenario(t *testing.T) {
	runner := NewRunner(4, nil)

	summary, err := runner.Run(context.Background(), personality.Default(), 16)
	require.NoError(t, err)

	assert.Equal(t, 16, summary.Runs)
	assert.Len(t, summary.Results, 16)

	// The default scenario closes deterministically, so every run deals.
	assert.Equal(t, 16, summary.Outcomes[negotiation.OutcomeDeal])
	assert.True(t, summary.DealRate().Equal(decimal.NewFromInt(1)), "deal rate %s", summary.DealRate())
	assert.True(t, summary.AvgDealPrice.IsPositive())
	assert.True(t, summary.AvgRounds.IsPositive())
}

// Runs must be isolated: every negotiation gets its own state and id,
// and identical inputs produce identical transcripts.
func TestRunner_RunsAreIsolatedAndDeterministic(t *testing.T) {
	runner := NewRunner(8, nil)

	summary, err := runner.Run(context.Background(), personality.Default(), 8)
	require.NoError(t, err)
	require.Len(t, summary.Results, 8)

	ids := make(map[uuid.UUID]bool)
	reference := summary.Results[0]
	for _, result := range summary.Results {
		assert.False(t, ids[result.ID], "duplicate negotiation id %s", result.ID)
		ids[result.ID] = true

		require.Equal(t, len(reference.Transcript), len(result.Transcript))
		for i, ev := range result.Transcript {
			ref := reference.Transcript[i]
			assert.Equal(t, ref.Round, ev.Round)
			assert.Equal(t, ref.Actor, ev.Actor)
			assert.True(t, ref.Price.Equal(ev.Price), "event %d: %s vs %s", i, ref.Price, ev.Price)
		}
	}
}

func TestRunner_AdviceAppliesToEveryRun(t *testing.T) {
	// Advice pinning both sides at 410 closes each run in round one.
	advice := func(state negotiation.State, actor negotiation.Role) (decimal.Decimal, bool) {
		return decimal.NewFromInt(410), true
	}
	runner := NewRunner(2, advice)

	summary, err := runner.Run(context.Background(), personality.Default(), 4)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Outcomes[negotiation.OutcomeDeal])
	assert.True(t, summary.AvgRounds.Equal(decimal.NewFromInt(1)), "avg rounds %s", summary.AvgRounds)
	assert.True(t, summary.AvgDealPrice.Equal(decimal.NewFromInt(410)))
}

func TestRunner_RejectsNonPositiveRuns(t *testing.T) {
	runner := NewRunner(4, nil)

	_, err := runner.Run(context.Background(), personality.Default(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestRunner_RejectsBrokenScenarioUpFront(t *testing.T) {
	scenario := personality.Default()
	scenario.Buyer.Style = "stubborn"

	runner := NewRunner(4, nil)
	_, err := runner.Run(context.Background(), scenario, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownStyle))
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(4, nil)
	_, err := runner.Run(ctx, personality.Default(), 4)
	require.Error(t, err)
}

func TestRunner_ConcurrencyFloor(t *testing.T) {
	runner := NewRunner(0, nil)
	assert.Equal(t, 1, runner.maxConcurrency)
}
