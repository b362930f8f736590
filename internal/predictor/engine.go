package predictor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/internal/ai/llm"
	"github.com/dyncarl8-oss/signalix-ai/internal/market"
	"github.com/dyncarl8-oss/signalix-ai/internal/signal"
)

// Completer is a single fallible decision source, implemented by llm.Client.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type decisionSource struct {
	name      string
	completer Completer
}

// Engine turns a technical snapshot into a decision by walking an ordered
// chain of model sources, short-circuiting on the first usable response.
type Engine struct {
	sources []decisionSource
	logger  zerolog.Logger
}

// NewEngine creates an empty engine; add sources in fallback order.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// AddSource appends a decision source to the fallback chain.
func (e *Engine) AddSource(name string, completer Completer) {
	e.sources = append(e.sources, decisionSource{name: name, completer: completer})
}

// Decide asks each source in order with the identical prompt. Every source
// failure (transport error, empty response, malformed JSON) advances the
// chain; an error is returned only after all sources are exhausted.
func (e *Engine) Decide(ctx context.Context, snapshot *market.Snapshot, tech *signal.TechnicalSnapshot) (*Decision, error) {
	if len(e.sources) == 0 {
		return nil, fmt.Errorf("no decision sources configured")
	}

	prompt := llm.BuildPredictionPrompt(snapshot, tech)

	var lastErr error
	for _, src := range e.sources {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		response, err := src.completer.Complete(ctx, llm.SystemPromptPrediction, prompt)
		if err != nil {
			e.logger.Warn().Err(err).Str("source", src.name).Str("pair", snapshot.Pair).Msg("decision source failed")
			lastErr = err
			continue
		}

		decision, err := ParseDecision(response)
		if err != nil {
			e.logger.Warn().Err(err).Str("source", src.name).Str("pair", snapshot.Pair).Msg("decision source returned unusable response")
			lastErr = err
			continue
		}

		e.logger.Debug().
			Str("source", src.name).
			Str("pair", snapshot.Pair).
			Str("direction", string(decision.Direction)).
			Int("confidence", decision.Confidence).
			Msg("decision produced")
		return decision, nil
	}

	return nil, fmt.Errorf("all decision sources failed: %w", lastErr)
}
