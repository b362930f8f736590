// Package signal converts a market snapshot into the technical snapshot
// consumed by the decision engine.
package signal

import (
	"math"

	"github.com/dyncarl8-oss/signalix-ai/internal/market"
)

// Market regimes.
const (
	RegimeTrendingUp   = "trending_up"
	RegimeTrendingDown = "trending_down"
	RegimeRanging      = "ranging"
	RegimeVolatile     = "volatile"
)

// Signal is a single directional observation with a strength score in [0,1].
type Signal struct {
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// TechnicalSnapshot is the synthesized view of a candle history.
type TechnicalSnapshot struct {
	Regime        string   `json:"regime"`
	RSI           float64  `json:"rsi"`
	MACDSignal    string   `json:"macd_signal"` // bullish or bearish
	TrendStrength float64  `json:"trend_strength"`
	VolumeSignal  string   `json:"volume_signal"` // increasing or decreasing
	Volatility    float64  `json:"volatility"`
	UpSignals     []Signal `json:"up_signals"`
	DownSignals   []Signal `json:"down_signals"`
}

// Synthesize builds a technical snapshot from market data.
func Synthesize(snapshot *market.Snapshot) *TechnicalSnapshot {
	closes := make([]float64, len(snapshot.Candles))
	for i, c := range snapshot.Candles {
		closes[i] = c.Close
	}

	rsiVal := rsi(closes, 14)
	macdLine, signalLine := macd(closes)
	vol := volatility(closes)

	macdSignal := "bearish"
	if macdLine > signalLine {
		macdSignal = "bullish"
	}

	volumeSignal := "decreasing"
	if snapshot.VolumeChange24h > 0 {
		volumeSignal = "increasing"
	}

	fastMA := sma(closes, 20)
	slowMA := sma(closes, 50)
	trendStrength := 0.0
	if slowMA != 0 {
		trendStrength = math.Min(math.Abs(fastMA-slowMA)/slowMA*20, 1)
	}

	regime := classifyRegime(fastMA, slowMA, trendStrength, vol)

	ts := &TechnicalSnapshot{
		Regime:        regime,
		RSI:           rsiVal,
		MACDSignal:    macdSignal,
		TrendStrength: trendStrength,
		VolumeSignal:  volumeSignal,
		Volatility:    vol,
	}

	collectSignals(ts, snapshot, closes, fastMA, macdLine, signalLine)
	return ts
}

func classifyRegime(fastMA, slowMA, trendStrength, vol float64) string {
	if vol > 2.5 {
		return RegimeVolatile
	}
	if trendStrength < 0.2 {
		return RegimeRanging
	}
	if fastMA >= slowMA {
		return RegimeTrendingUp
	}
	return RegimeTrendingDown
}

func collectSignals(ts *TechnicalSnapshot, snapshot *market.Snapshot, closes []float64, fastMA, macdLine, signalLine float64) {
	up := func(name string, strength float64) {
		ts.UpSignals = append(ts.UpSignals, Signal{Name: name, Strength: clamp01(strength)})
	}
	down := func(name string, strength float64) {
		ts.DownSignals = append(ts.DownSignals, Signal{Name: name, Strength: clamp01(strength)})
	}

	if ts.RSI < 30 {
		up("RSI oversold", (30-ts.RSI)/30)
	} else if ts.RSI > 70 {
		down("RSI overbought", (ts.RSI-70)/30)
	}

	macdGap := math.Abs(macdLine - signalLine)
	macdStrength := 0.5
	if snapshot.CurrentPrice > 0 {
		macdStrength = math.Min(macdGap/snapshot.CurrentPrice*1000, 1)
	}
	if macdLine > signalLine {
		up("MACD bullish crossover", macdStrength)
	} else if macdLine < signalLine {
		down("MACD bearish crossover", macdStrength)
	}

	if fastMA > 0 {
		deviation := (snapshot.CurrentPrice - fastMA) / fastMA
		if deviation > 0 {
			up("Price above 20-period average", math.Min(deviation*50, 1))
		} else if deviation < 0 {
			down("Price below 20-period average", math.Min(-deviation*50, 1))
		}
	}

	if snapshot.PriceChange24h > 0 {
		up("Positive 24h momentum", math.Min(snapshot.PriceChange24h/10, 1))
	} else if snapshot.PriceChange24h < 0 {
		down("Negative 24h momentum", math.Min(-snapshot.PriceChange24h/10, 1))
	}

	if len(closes) >= 2 && snapshot.VolumeChange24h > 0 {
		last := closes[len(closes)-1]
		prev := closes[len(closes)-2]
		strength := math.Min(snapshot.VolumeChange24h/100, 1)
		if last > prev {
			up("Volume-backed upward move", strength)
		} else if last < prev {
			down("Volume-backed downward move", strength)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
