// Package advisor implements the negotiation advice seam on top of the
// OpenAI API: a per-round suggestion for the acting agent's next offer.
// The core treats the advisor as an optional, unreliable collaborator;
// every failure path here degrades to "no suggestion" so a negotiation
// always falls back to the formulaic policy.
package advisor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/shopspring/decimal"

	"hermes/internal/adapters/config"
	"hermes/internal/metrics"
	"hermes/internal/negotiation"
	"hermes/internal/personality"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// OpenAIAdvisor suggests next offers via the official OpenAI Go SDK.
type OpenAIAdvisor struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	limiter     *Limiter
	log         *logger.Logger
}

// NewOpenAIAdvisor creates an advisor from the advisor configuration.
func NewOpenAIAdvisor(cfg config.AdvisorConfig) (*OpenAIAdvisor, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	perMinute := cfg.RequestsPerMin
	if perMinute <= 0 {
		perMinute = 60
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIKey),
	)

	return &OpenAIAdvisor{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		limiter:     NewLimiter("openai_advisor", perMinute),
		log:         logger.Get().With("component", "openai_advisor", "model", model),
	}, nil
}

// AdviceFunc adapts the advisor to the core's advice seam for one
// scenario. The returned function never propagates an error: rate-limit
// denial, timeout, API failure and malformed responses all come back as
// ok=false and the round proceeds formulaically.
func (a *OpenAIAdvisor) AdviceFunc(scenario *personality.Scenario) negotiation.AdviceFunc {
	return func(state negotiation.State, actor negotiation.Role) (decimal.Decimal, bool) {
		start := time.Now()
		price, err := a.Suggest(context.Background(), scenario, state, actor)
		metrics.RecordAdviceCall(a.model, time.Since(start), err)
		if err != nil {
			a.log.Warnw("advice unavailable, falling back to formulaic policy",
				"actor", actor,
				"round", state.Round,
				"error", err,
			)
			return decimal.Decimal{}, false
		}
		return price, true
	}
}

// Suggest asks the model for the acting agent's next offer. The request
// carries its own timeout; a run is never stalled by a slow provider.
func (a *OpenAIAdvisor) Suggest(ctx context.Context, scenario *personality.Scenario, state negotiation.State, actor negotiation.Role) (decimal.Decimal, error) {
	if !a.limiter.Allow() {
		return decimal.Decimal{}, errors.Wrapf(errors.ErrRateLimitExceeded, "advice for %s round %d", actor, state.Round)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(scenario, actor)),
			openai.UserMessage(buildRoundPrompt(state, actor)),
		},
		Temperature: openai.Float(a.temperature),
	}
	if a.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(a.maxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(errors.ErrAdviceUnavailable, err.Error())
	}
	if len(resp.Choices) == 0 {
		return decimal.Decimal{}, errors.Wrap(errors.ErrAdviceRejected, "no choices in response")
	}

	price, err := parseAdvice(resp.Choices[0].Message.Content)
	if err != nil {
		return decimal.Decimal{}, err
	}

	a.log.Debugw("advice received",
		"actor", actor,
		"round", state.Round,
		"price", price.StringFixed(2),
		"tokens_used", resp.Usage.TotalTokens,
	)
	return price, nil
}

// adviceResponse is the strict JSON object the model is instructed to
// return.
type adviceResponse struct {
	Price float64 `json:"price"`
}

// parseAdvice extracts the suggested price from the model output. The
// model is told to answer with a bare JSON object, but a chatty reply
// wrapping the object in prose is tolerated.
func parseAdvice(content string) (decimal.Decimal, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return decimal.Decimal{}, errors.Wrapf(errors.ErrAdviceRejected, "no JSON object in %q", content)
	}

	var parsed adviceResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return decimal.Decimal{}, errors.Wrapf(errors.ErrAdviceRejected, "malformed advice: %v", err)
	}
	if parsed.Price <= 0 {
		return decimal.Decimal{}, errors.Wrapf(errors.ErrAdviceRejected, "non-positive price %v", parsed.Price)
	}
	return decimal.NewFromFloat(parsed.Price), nil
}
