package predictor

import (
	"fmt"
	"strings"

	"github.com/dyncarl8-oss/signalix-ai/internal/market"
)

// Outbound message types: a closed tagged set.
const (
	MessageTypeBot                 = "bot_message"
	MessageTypeTyping              = "typing"
	MessageTypePrediction          = "prediction"
	MessageTypeInsufficientCredits = "insufficient_credits"
	MessageTypeCreditsUpdate       = "credits_update"
)

// OutboundMessage is a single message sent to the client.
type OutboundMessage struct {
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Prediction *Decision `json:"prediction,omitempty"`
	Credits    *int      `json:"credits,omitempty"`
}

// BotMessage builds a plain chat message.
func BotMessage(content string) OutboundMessage {
	return OutboundMessage{Type: MessageTypeBot, Content: content}
}

// TypingMessage builds a typing indicator.
func TypingMessage() OutboundMessage {
	return OutboundMessage{Type: MessageTypeTyping}
}

// CreditsUpdateMessage reports the refreshed balance.
func CreditsUpdateMessage(credits int) OutboundMessage {
	return OutboundMessage{
		Type:    MessageTypeCreditsUpdate,
		Content: fmt.Sprintf("You have %d credits remaining.", credits),
		Credits: &credits,
	}
}

// InsufficientCreditsMessage tells the user the balance is exhausted.
func InsufficientCreditsMessage(credits int) OutboundMessage {
	return OutboundMessage{
		Type:    MessageTypeInsufficientCredits,
		Content: "You're out of credits! Purchase the unlimited pass to keep receiving predictions.",
		Credits: &credits,
	}
}

// PredictionMessage pairs the decision with its narrative text.
func PredictionMessage(pair string, decision *Decision) OutboundMessage {
	return OutboundMessage{
		Type:       MessageTypePrediction,
		Content:    predictionText(pair, decision),
		Prediction: decision,
	}
}

// Fixed chat texts used across the dispatcher and orchestrator.
const (
	ServiceUnavailableText = "The prediction service is temporarily unavailable. Please try again in a moment."
	WelcomeText            = "Welcome to Signalix! Select a trading pair and I'll analyze it for you. Type /history to see your recent predictions."
	FollowUpActionableText = "Want another read? Pick another pair whenever you're ready."
	FollowUpNeutralText    = "That one came back neutral, so no credits were consumed. Pick another pair to try again."
)

// HelpText lists the supported pairs for unrecognized messages.
func HelpText() string {
	return fmt.Sprintf(
		"I can analyze these pairs: %s. Mention one (like \"BTC/USDT\") or type /history to see your predictions.",
		strings.Join(market.SupportedPairs, ", "),
	)
}

// AnalyzingText is the thinking message that opens every cycle.
func AnalyzingText(pair string) string {
	return fmt.Sprintf("Analyzing %s...", pair)
}

func predictionText(pair string, decision *Decision) string {
	switch decision.Direction {
	case DirectionNeutral:
		return fmt.Sprintf("No actionable edge on %s right now. %s", pair, decision.Rationale)
	case DirectionUp:
		return fmt.Sprintf("%s is likely to move UP within %s. Confidence: %d%%. %s",
			pair, decision.Duration, decision.Confidence, decision.Rationale)
	default:
		return fmt.Sprintf("%s is likely to move DOWN within %s. Confidence: %d%%. %s",
			pair, decision.Duration, decision.Confidence, decision.Rationale)
	}
}
