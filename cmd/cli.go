package main

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"

	"hermes/internal/adapters/advisor"
	"hermes/internal/adapters/config"
	"hermes/internal/negotiation"
	"hermes/internal/personality"
	"hermes/internal/report"
	"hermes/internal/simulation"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Options is the root command grouping the sub-commands. The struct tags
// are interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Run   *RunCmd   `command:"run" description:"Run a single negotiation and print the transcript"`
	Batch *BatchCmd `command:"batch" description:"Run a scenario repeatedly and print the aggregate summary"`
}

func newOptions(cfg *config.Config, tracker errors.Tracker) *Options {
	return &Options{
		Run:   &RunCmd{cfg: cfg, tracker: tracker},
		Batch: &BatchCmd{cfg: cfg, tracker: tracker},
	}
}

// RunCmd executes one negotiation.
type RunCmd struct {
	Scenario string `short:"s" long:"scenario" description:"scenario file (JSON or YAML); omit for the built-in demo"`
	JSON     bool   `long:"json" description:"print the result as JSON instead of a table"`
	Advise   bool   `long:"advise" description:"consult the configured LLM advisor each round"`

	cfg     *config.Config
	tracker errors.Tracker
	out     io.Writer
}

// Execute implements the go-flags command interface.
func (c *RunCmd) Execute(_ []string) error {
	ctx := context.Background()

	scenario, err := loadScenario(c.Scenario)
	if err != nil {
		return err
	}

	engineCfg, err := scenario.EngineConfig()
	if err != nil {
		return err
	}
	engineCfg.Advice = buildAdvice(c.cfg, c.Advise, scenario)

	engine, err := negotiation.New(engineCfg)
	if err != nil {
		return err
	}
	if c.tracker != nil {
		c.tracker.SetRun(ctx, engine.ID().String(), scenario.Name)
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	reporter := report.New(output(c.out))
	if c.JSON {
		return reporter.WriteJSON(result)
	}
	return reporter.Render(scenario, result)
}

// BatchCmd executes a scenario many times concurrently.
type BatchCmd struct {
	Scenario    string `short:"s" long:"scenario" description:"scenario file (JSON or YAML); omit for the built-in demo"`
	Runs        int    `short:"n" long:"runs" description:"number of negotiations to run (default from BATCH_RUNS)"`
	Concurrency int    `short:"c" long:"concurrency" description:"maximum concurrent negotiations (default from BATCH_MAX_CONCURRENCY)"`
	Advise      bool   `long:"advise" description:"consult the configured LLM advisor each round"`

	cfg     *config.Config
	tracker errors.Tracker
	out     io.Writer
}

// Execute implements the go-flags command interface.
func (c *BatchCmd) Execute(_ []string) error {
	ctx := context.Background()

	scenario, err := loadScenario(c.Scenario)
	if err != nil {
		return err
	}

	runs := c.Runs
	if runs <= 0 {
		runs = c.cfg.Batch.Runs
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = c.cfg.Batch.MaxConcurrency
	}

	// Individual runs get their own ids; the batch is tagged as one unit.
	if c.tracker != nil {
		c.tracker.SetRun(ctx, uuid.New().String(), scenario.Name)
	}

	runner := simulation.NewRunner(concurrency, buildAdvice(c.cfg, c.Advise, scenario))
	summary, err := runner.Run(ctx, scenario, runs)
	if err != nil {
		return err
	}
	return report.New(output(c.out)).RenderSummary(scenario, summary)
}

// output defaults command output to stdout.
func output(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}

func loadScenario(path string) (*personality.Scenario, error) {
	if path == "" {
		return personality.Default(), nil
	}
	return personality.LoadScenario(path)
}

// buildAdvice wires the LLM advisor when requested and configured; any
// misconfiguration degrades to the formulaic policy with a warning.
func buildAdvice(cfg *config.Config, requested bool, scenario *personality.Scenario) negotiation.AdviceFunc {
	if !requested {
		return nil
	}
	if !cfg.Advisor.Active() {
		logger.Get().Warn("Advisor requested but not configured; running formulaically")
		return nil
	}

	adv, err := advisor.NewOpenAIAdvisor(cfg.Advisor)
	if err != nil {
		logger.Get().Warnf("Advisor unavailable: %v; running formulaically", err)
		return nil
	}
	return adv.AdviceFunc(scenario)
}
