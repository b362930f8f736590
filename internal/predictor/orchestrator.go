package predictor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/internal/credits"
	"github.com/dyncarl8-oss/signalix-ai/internal/database"
	"github.com/dyncarl8-oss/signalix-ai/internal/market"
	"github.com/dyncarl8-oss/signalix-ai/internal/signal"
)

// MarketProvider supplies market snapshots.
type MarketProvider interface {
	Fetch(ctx context.Context, pair string) (*market.Snapshot, error)
}

// DecisionEngine produces a decision from a snapshot.
type DecisionEngine interface {
	Decide(ctx context.Context, snapshot *market.Snapshot, tech *signal.TechnicalSnapshot) (*Decision, error)
}

// Sender delivers one outbound message to the client. It returns an error
// once the connection is gone.
type Sender interface {
	Send(msg OutboundMessage) error
}

// UX pacing defaults. The typing delay and analysis floor exist so replies
// feel considered rather than instantaneous.
const (
	DefaultThinkDelay    = 600 * time.Millisecond
	DefaultAnalysisFloor = 2 * time.Second
	DefaultFollowUpDelay = 1 * time.Second
)

// Orchestrator runs the credit-gated analyze-pair cycle with its fixed
// outbound message order.
type Orchestrator struct {
	ledger   credits.Ledger
	provider MarketProvider
	engine   DecisionEngine
	logger   zerolog.Logger

	// Overridable in tests.
	ThinkDelay    time.Duration
	AnalysisFloor time.Duration
	FollowUpDelay time.Duration
}

// NewOrchestrator wires the pipeline with default pacing.
func NewOrchestrator(ledger credits.Ledger, provider MarketProvider, engine DecisionEngine, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		ledger:        ledger,
		provider:      provider,
		engine:        engine,
		logger:        logger,
		ThinkDelay:    DefaultThinkDelay,
		AnalysisFloor: DefaultAnalysisFloor,
		FollowUpDelay: DefaultFollowUpDelay,
	}
}

// AnalyzePair runs one prediction cycle for the pair. On success the client
// receives, in order: bot_message → typing → prediction → credits_update →
// follow-up bot_message. ctx is the connection context; when it is cancelled
// every in-flight external call aborts and remaining sends are skipped.
// Failures never propagate: they are converted into chat messages.
func (o *Orchestrator) AnalyzePair(ctx context.Context, pair, userID string, sess *Session, send Sender) {
	uc, err := o.ledger.GetCredits(ctx, userID)
	if err != nil {
		o.logger.Error().Err(err).Str("user_id", userID).Msg("credit lookup failed")
		o.sendChecked(ctx, send, BotMessage(ServiceUnavailableText))
		return
	}

	// Pre-flight gate. Re-checked atomically at deduction time.
	if !uc.HasUnlimitedAccess && uc.Credits <= 0 {
		o.sendChecked(ctx, send, InsufficientCreditsMessage(uc.Credits))
		return
	}

	if !o.sendChecked(ctx, send, BotMessage(AnalyzingText(pair))) {
		return
	}
	if !o.wait(ctx, o.ThinkDelay) {
		return
	}
	if !o.sendChecked(ctx, send, TypingMessage()) {
		return
	}

	started := time.Now()

	snapshot, err := o.provider.Fetch(ctx, pair)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.logger.Error().Err(err).Str("pair", pair).Msg("market snapshot failed")
		o.sendChecked(ctx, send, BotMessage(ServiceUnavailableText))
		return
	}

	tech := signal.Synthesize(snapshot)

	decision, err := o.engine.Decide(ctx, snapshot, tech)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.logger.Error().Err(err).Str("pair", pair).Msg("decision engine exhausted")
		o.sendChecked(ctx, send, BotMessage(ServiceUnavailableText))
		return
	}

	// Hold the reply until the analysis floor has passed.
	if remaining := o.AnalysisFloor - time.Since(started); remaining > 0 {
		if !o.wait(ctx, remaining) {
			return
		}
	}

	if decision.Actionable() && !uc.HasUnlimitedAccess {
		ok, err := o.ledger.Decrement(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Error().Err(err).Str("user_id", userID).Msg("credit decrement failed")
			o.sendChecked(ctx, send, BotMessage(ServiceUnavailableText))
			return
		}
		// Lost the race against a concurrent cycle: balance hit zero after
		// the pre-flight check. No prediction, no history entry.
		if !ok {
			o.sendChecked(ctx, send, InsufficientCreditsMessage(0))
			return
		}
	}

	sess.Append(HistoryEntry{
		Pair:       pair,
		Direction:  decision.Direction,
		Confidence: decision.Confidence,
		Timestamp:  time.Now(),
	})

	if !o.sendChecked(ctx, send, PredictionMessage(pair, decision)) {
		return
	}

	balance := o.refreshedBalance(ctx, userID, uc, decision)
	if !o.sendChecked(ctx, send, CreditsUpdateMessage(balance)) {
		return
	}

	if !o.wait(ctx, o.FollowUpDelay) {
		return
	}
	if decision.Actionable() {
		o.sendChecked(ctx, send, BotMessage(FollowUpActionableText))
	} else {
		o.sendChecked(ctx, send, BotMessage(FollowUpNeutralText))
	}
}

// refreshedBalance re-reads the balance for the credits_update message,
// falling back to the locally computed value if the read fails.
func (o *Orchestrator) refreshedBalance(ctx context.Context, userID string, before *database.UserCredits, decision *Decision) int {
	refreshed, err := o.ledger.GetCredits(ctx, userID)
	if err == nil {
		return refreshed.Credits
	}

	o.logger.Warn().Err(err).Str("user_id", userID).Msg("balance refresh failed")
	balance := before.Credits
	if decision.Actionable() && !before.HasUnlimitedAccess {
		balance--
	}
	if balance < 0 {
		balance = 0
	}
	return balance
}

// sendChecked delivers a message unless the connection has gone away.
// Returns false when remaining sends should be skipped.
func (o *Orchestrator) sendChecked(ctx context.Context, send Sender, msg OutboundMessage) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := send.Send(msg); err != nil {
		o.logger.Debug().Err(err).Str("type", msg.Type).Msg("send skipped, connection closed")
		return false
	}
	return true
}

// wait sleeps for d or until the connection context is cancelled.
func (o *Orchestrator) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
