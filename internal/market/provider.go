package market

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"
)

// api is the provider-facing slice of the REST client, stubbed in tests.
type api interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
	Get24hChange(ctx context.Context, symbol string) (float64, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// Provider fetches market snapshots and degrades to synthetic data when the
// upstream is unavailable. Provider failures are never surfaced to the user;
// only an unsupported pair is an error.
type Provider struct {
	api      api
	interval string
	logger   zerolog.Logger
}

// NewProvider creates a provider on top of the given client.
func NewProvider(client *Client, interval string, logger zerolog.Logger) *Provider {
	return &Provider{api: client, interval: interval, logger: logger}
}

// syntheticVolume is the placeholder volume on fabricated candles.
const syntheticVolume = 1_000_000

// referencePrices anchor fully synthetic snapshots when even the spot price
// fetch fails.
var referencePrices = map[string]float64{
	"BTC/USDT":  65000,
	"ETH/USDT":  3500,
	"SOL/USDT":  150,
	"BNB/USDT":  600,
	"XRP/USDT":  0.55,
	"ADA/USDT":  0.45,
	"DOGE/USDT": 0.12,
	"EUR/USD":   1.08,
	"GBP/USD":   1.27,
	"USD/JPY":   150,
}

// Fetch builds a snapshot for the pair. The returned candle history is always
// exactly CandleCount entries, oldest to newest.
func (p *Provider) Fetch(ctx context.Context, pair string) (*Snapshot, error) {
	symbol, err := ResolveSymbol(pair)
	if err != nil {
		return nil, err
	}

	price, err := p.api.GetPrice(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		price = referencePrices[pair]
		p.logger.Warn().Err(err).Str("pair", pair).Msg("price fetch failed, using reference price")
	}

	priceChange, err := p.api.Get24hChange(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		priceChange = 0
		p.logger.Debug().Err(err).Str("pair", pair).Msg("24h change fetch failed, defaulting to 0")
	}

	candles, err := p.api.GetKlines(ctx, symbol, p.interval, CandleCount)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		candles = nil
		p.logger.Warn().Err(err).Str("pair", pair).Msg("candle fetch failed, backfilling with synthetic data")
	}

	if len(candles) > CandleCount {
		candles = candles[len(candles)-CandleCount:]
	}
	if len(candles) < CandleCount {
		candles = backfillSynthetic(candles, price, CandleCount)
	}

	return &Snapshot{
		Pair:            pair,
		CurrentPrice:    price,
		Candles:         candles,
		PriceChange24h:  priceChange,
		VolumeChange24h: volumeChangePercent(candles),
	}, nil
}

// backfillSynthetic prepends fabricated candles so the history is exactly
// target entries and remains oldest to newest. Each synthetic close is the
// current price perturbed by ±0.5%, with open/high/low within ±0.1% of it.
func backfillSynthetic(real []Candle, price float64, target int) []Candle {
	shortfall := target - len(real)

	var anchor int64
	if len(real) > 0 {
		anchor = real[0].Timestamp
	} else {
		anchor = nowMillis()
	}

	synthetic := make([]Candle, 0, target)
	for i := 0; i < shortfall; i++ {
		close := price * (1 + (rand.Float64()-0.5)*0.01)
		synthetic = append(synthetic, Candle{
			Timestamp: anchor - int64(shortfall-i)*CandleIntervalMillis,
			Open:      close * (1 + (rand.Float64()-0.5)*0.002),
			High:      close * 1.001,
			Low:       close * 0.999,
			Close:     close,
			Volume:    syntheticVolume,
		})
	}

	return append(synthetic, real...)
}

// volumeChangePercent compares the mean volume of the most recent 10 candles
// against the mean of the full history, as a percentage delta.
func volumeChangePercent(candles []Candle) float64 {
	if len(candles) == 0 {
		return 0
	}

	recentCount := 10
	if len(candles) < recentCount {
		recentCount = len(candles)
	}

	var total, recent float64
	for i, c := range candles {
		total += c.Volume
		if i >= len(candles)-recentCount {
			recent += c.Volume
		}
	}

	totalAvg := total / float64(len(candles))
	if totalAvg == 0 {
		return 0
	}
	recentAvg := recent / float64(recentCount)

	return (recentAvg/totalAvg - 1) * 100
}
