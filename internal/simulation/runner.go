// Package simulation runs batches of independent negotiations. Each run
// owns its own engine and state; the only shared work is collecting
// results for the aggregate summary.
package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/metrics"
	"hermes/internal/negotiation"
	"hermes/internal/personality"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Summary aggregates a batch of negotiation results.
type Summary struct {
	Runs     int                         `json:"runs"`
	Outcomes map[negotiation.Outcome]int `json:"outcomes"`
	Results  []*negotiation.Result       `json:"results"`
	Duration time.Duration               `json:"duration"`

	// AvgRounds and AvgDealPrice are computed over finished runs and
	// closed deals respectively.
	AvgRounds    decimal.Decimal `json:"avg_rounds"`
	AvgDealPrice decimal.Decimal `json:"avg_deal_price"`
}

// DealRate returns the fraction of runs that closed a deal.
func (s *Summary) DealRate() decimal.Decimal {
	if s.Runs == 0 {
		return decimal.Decimal{}
	}
	deals := decimal.NewFromInt(int64(s.Outcomes[negotiation.OutcomeDeal]))
	return deals.Div(decimal.NewFromInt(int64(s.Runs)))
}

// Runner executes a scenario repeatedly under a bounded concurrency
// semaphore.
type Runner struct {
	maxConcurrency int
	advice         negotiation.AdviceFunc
	log            *logger.Logger
}

// NewRunner creates a batch runner. advice may be nil for purely
// formulaic runs.
func NewRunner(maxConcurrency int, advice negotiation.AdviceFunc) *Runner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Runner{
		maxConcurrency: maxConcurrency,
		advice:         advice,
		log:            logger.Get().With("component", "simulation_runner"),
	}
}

// Run executes the scenario runs times and aggregates the outcomes.
// Individual run failures (only possible through context cancellation)
// are collected; the summary covers the runs that finished.
func (r *Runner) Run(ctx context.Context, scenario *personality.Scenario, runs int) (*Summary, error) {
	if runs <= 0 {
		return nil, errors.NewValidationError("runs", "must be positive", runs)
	}

	// Resolve once so a broken scenario fails before any goroutine starts.
	if _, err := scenario.EngineConfig(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.log.Infow("batch started",
		"scenario", scenario.Name,
		"runs", runs,
		"max_concurrency", r.maxConcurrency,
	)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.maxConcurrency)
	resultsCh := make(chan *negotiation.Result, runs)
	errorsCh := make(chan error, runs)

	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result, err := r.runOne(ctx, scenario)
			metrics.RecordBatchRun(err)
			if err != nil {
				errorsCh <- err
				return
			}
			resultsCh <- result
		}()
	}

	wg.Wait()
	close(resultsCh)
	close(errorsCh)

	summary := summarize(resultsCh)
	summary.Duration = time.Since(start)

	var runErrors []error
	for err := range errorsCh {
		runErrors = append(runErrors, err)
	}

	r.log.Infow("batch finished",
		"scenario", scenario.Name,
		"runs", summary.Runs,
		"deals", summary.Outcomes[negotiation.OutcomeDeal],
		"errors", len(runErrors),
		"duration", summary.Duration,
	)

	if len(runErrors) > 0 && summary.Runs == 0 {
		return nil, errors.Wrapf(runErrors[0], "all %d runs failed", runs)
	}
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, scenario *personality.Scenario) (*negotiation.Result, error) {
	cfg, err := scenario.EngineConfig()
	if err != nil {
		return nil, err
	}
	cfg.Advice = r.advice

	engine, err := negotiation.New(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordNegotiation(result.Outcome.String(), result.Rounds, time.Since(start))
	for _, ev := range result.Transcript {
		if ev.Clamped {
			metrics.RecordClampedOffer(ev.Actor.String())
		}
	}
	return result, nil
}

func summarize(results <-chan *negotiation.Result) *Summary {
	summary := &Summary{
		Outcomes: make(map[negotiation.Outcome]int),
	}

	roundSum := decimal.Decimal{}
	priceSum := decimal.Decimal{}
	for result := range results {
		summary.Runs++
		summary.Outcomes[result.Outcome]++
		summary.Results = append(summary.Results, result)
		roundSum = roundSum.Add(decimal.NewFromInt(int64(result.Rounds)))
		if result.Outcome == negotiation.OutcomeDeal {
			priceSum = priceSum.Add(result.Price)
		}
	}

	if summary.Runs > 0 {
		summary.AvgRounds = roundSum.Div(decimal.NewFromInt(int64(summary.Runs)))
	}
	if deals := summary.Outcomes[negotiation.OutcomeDeal]; deals > 0 {
		summary.AvgDealPrice = priceSum.Div(decimal.NewFromInt(int64(deals)))
	}
	return summary
}
