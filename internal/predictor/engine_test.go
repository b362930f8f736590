package predictor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/internal/market"
	"github.com/dyncarl8-oss/signalix-ai/internal/signal"
)

type stubCompleter struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, userPrompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testSnapshot() *market.Snapshot {
	return &market.Snapshot{
		Pair:         "BTC/USDT",
		CurrentPrice: 65000,
		Candles: []market.Candle{
			{Timestamp: 1, Open: 64900, High: 65100, Low: 64800, Close: 65000, Volume: 1000},
		},
	}
}

func testTech() *signal.TechnicalSnapshot {
	return &signal.TechnicalSnapshot{Regime: signal.RegimeRanging, RSI: 50}
}

const validResponse = `{"direction":"UP","confidence":95,"duration":"30-45 seconds","rationale":"x","riskFactors":["a","b"]}`

func TestDecide_PrimarySucceeds_FallbackNeverCalled(t *testing.T) {
	primary := &stubCompleter{response: validResponse}
	fallback := &stubCompleter{response: validResponse}

	engine := NewEngine(zerolog.Nop())
	engine.AddSource("primary", primary)
	engine.AddSource("fallback", fallback)

	d, err := engine.Decide(context.Background(), testSnapshot(), testTech())
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Direction != DirectionUp {
		t.Errorf("direction = %s", d.Direction)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestDecide_PrimaryFails_FallbackGetsIdenticalPrompt(t *testing.T) {
	primary := &stubCompleter{err: errors.New("rate limited")}
	fallback := &stubCompleter{response: validResponse}

	engine := NewEngine(zerolog.Nop())
	engine.AddSource("primary", primary)
	engine.AddSource("fallback", fallback)

	d, err := engine.Decide(context.Background(), testSnapshot(), testTech())
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d == nil {
		t.Fatal("expected decision from fallback")
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
	if primary.prompts[0] != fallback.prompts[0] {
		t.Error("fallback received a different prompt than the primary")
	}
}

func TestDecide_MalformedResponseAdvancesChain(t *testing.T) {
	primary := &stubCompleter{response: "I think it will go up"}
	fallback := &stubCompleter{response: validResponse}

	engine := NewEngine(zerolog.Nop())
	engine.AddSource("primary", primary)
	engine.AddSource("fallback", fallback)

	d, err := engine.Decide(context.Background(), testSnapshot(), testTech())
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Confidence != 95 {
		t.Errorf("confidence = %d", d.Confidence)
	}
}

func TestDecide_AllSourcesFail(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	engine.AddSource("primary", &stubCompleter{err: errors.New("timeout")})
	engine.AddSource("fallback", &stubCompleter{err: errors.New("api error")})

	d, err := engine.Decide(context.Background(), testSnapshot(), testTech())
	if err == nil {
		t.Fatal("expected error")
	}
	if d != nil {
		t.Errorf("decision = %+v, want nil", d)
	}
	if !strings.Contains(err.Error(), "all decision sources failed") {
		t.Errorf("err = %v", err)
	}
}

func TestDecide_NoSourcesConfigured(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	if _, err := engine.Decide(context.Background(), testSnapshot(), testTech()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecide_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubCompleter{response: validResponse}
	engine := NewEngine(zerolog.Nop())
	engine.AddSource("primary", primary)

	if _, err := engine.Decide(ctx, testSnapshot(), testTech()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if primary.calls != 0 {
		t.Errorf("source called after cancellation")
	}
}
