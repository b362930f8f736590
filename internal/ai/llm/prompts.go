package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dyncarl8-oss/signalix-ai/internal/market"
	"github.com/dyncarl8-oss/signalix-ai/internal/signal"
)

// SystemPromptPrediction instructs the model to emit a schema-constrained
// short-horizon prediction.
const SystemPromptPrediction = `You are an expert short-term market prediction analyst. Based on the provided technical snapshot, predict the immediate price direction.

Your response must be valid JSON with exactly this structure:
{
  "direction": "UP" | "DOWN" | "NEUTRAL",
  "confidence": 90-98,
  "duration": "10-15 seconds" | "15-20 seconds" | "20-30 seconds" | "30-45 seconds" | "45-60 seconds" | "1-2 minutes",
  "rationale": "one or two sentences explaining the call",
  "riskFactors": ["2 to 4 short risk statements"]
}

Use NEUTRAL only when the signals genuinely conflict and there is no actionable edge.
Respond with the JSON object only, no surrounding text.`

// BuildPredictionPrompt renders the market and technical snapshot into the
// user prompt.
func BuildPredictionPrompt(snapshot *market.Snapshot, tech *signal.TechnicalSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Pair: %s\n", snapshot.Pair)
	fmt.Fprintf(&sb, "Current price: %.6f\n", snapshot.CurrentPrice)
	fmt.Fprintf(&sb, "24h change: %.2f%%\n", snapshot.PriceChange24h)
	fmt.Fprintf(&sb, "Market regime: %s\n", tech.Regime)
	fmt.Fprintf(&sb, "RSI(14): %.1f\n", tech.RSI)
	fmt.Fprintf(&sb, "MACD signal: %s\n", tech.MACDSignal)
	fmt.Fprintf(&sb, "Trend strength: %.2f\n", tech.TrendStrength)
	fmt.Fprintf(&sb, "Volume: %s (%.1f%% vs average)\n", tech.VolumeSignal, snapshot.VolumeChange24h)
	fmt.Fprintf(&sb, "Volatility: %.2f%%\n", tech.Volatility)

	sb.WriteString("\nBullish signals:\n")
	writeSignals(&sb, tech.UpSignals)
	sb.WriteString("\nBearish signals:\n")
	writeSignals(&sb, tech.DownSignals)

	sb.WriteString("\nPredict the immediate direction.")
	return sb.String()
}

func writeSignals(sb *strings.Builder, signals []signal.Signal) {
	if len(signals) == 0 {
		sb.WriteString("- none\n")
		return
	}
	for _, s := range signals {
		fmt.Fprintf(sb, "- %s (strength %.2f)\n", s.Name, s.Strength)
	}
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")

// StripMarkdownCodeBlock removes markdown code fences from LLM responses.
// Handles formats like: ```json\n{...}\n``` or ```\n{...}\n```
func StripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)
	if matches := codeBlockRe.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return response
}
