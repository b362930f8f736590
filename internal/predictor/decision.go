// Package predictor implements the prediction pipeline: the decision engine
// chain, per-connection session state and the analyze-pair workflow.
package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dyncarl8-oss/signalix-ai/internal/ai/llm"
)

// Direction of a prediction.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// Confidence bounds enforced on every decision regardless of what the model
// returned.
const (
	MinConfidence = 90
	MaxConfidence = 98
)

// DurationLabels is the fixed ordered set of valid prediction windows.
var DurationLabels = []string{
	"10-15 seconds",
	"15-20 seconds",
	"20-30 seconds",
	"30-45 seconds",
	"45-60 seconds",
	"1-2 minutes",
}

// DefaultDuration replaces labels outside the fixed set.
const DefaultDuration = "30-45 seconds"

// Decision is a validated model prediction.
type Decision struct {
	Direction   Direction `json:"direction"`
	Confidence  int       `json:"confidence"`
	Duration    string    `json:"duration"`
	Rationale   string    `json:"rationale"`
	RiskFactors []string  `json:"riskFactors"`
}

// Actionable reports whether the decision consumes a credit. NEUTRAL denotes
// no actionable edge and is always free.
func (d *Decision) Actionable() bool {
	return d.Direction != DirectionNeutral
}

// rawDecision matches the schema the model is asked to produce.
type rawDecision struct {
	Direction   string   `json:"direction"`
	Confidence  float64  `json:"confidence"`
	Duration    string   `json:"duration"`
	Rationale   string   `json:"rationale"`
	RiskFactors []string `json:"riskFactors"`
}

// ParseDecision validates and clamps a model response into a Decision.
func ParseDecision(response string) (*Decision, error) {
	cleaned := llm.StripMarkdownCodeBlock(response)

	var raw rawDecision
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("malformed decision JSON: %w", err)
	}

	direction := Direction(strings.ToUpper(strings.TrimSpace(raw.Direction)))
	switch direction {
	case DirectionUp, DirectionDown, DirectionNeutral:
	default:
		return nil, fmt.Errorf("invalid direction: %q", raw.Direction)
	}

	confidence := int(math.Round(raw.Confidence))
	if confidence < MinConfidence {
		confidence = MinConfidence
	}
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}

	duration := raw.Duration
	if !validDuration(duration) {
		duration = DefaultDuration
	}

	return &Decision{
		Direction:   direction,
		Confidence:  confidence,
		Duration:    duration,
		Rationale:   raw.Rationale,
		RiskFactors: raw.RiskFactors,
	}, nil
}

func validDuration(label string) bool {
	for _, l := range DurationLabels {
		if l == label {
			return true
		}
	}
	return false
}
