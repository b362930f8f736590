package market

import (
	"fmt"
	"strings"
)

// SupportedPairs is the closed set of tradeable pairs: seven crypto pairs
// quoted in USDT plus three foreign-exchange pairs.
var SupportedPairs = []string{
	"BTC/USDT",
	"ETH/USDT",
	"SOL/USDT",
	"BNB/USDT",
	"XRP/USDT",
	"ADA/USDT",
	"DOGE/USDT",
	"EUR/USD",
	"GBP/USD",
	"USD/JPY",
}

// symbolOverrides maps pairs whose provider symbol is not just the pair with
// the slash removed. FX pairs are proxied through their USDT-quoted markets.
var symbolOverrides = map[string]string{
	"EUR/USD": "EURUSDT",
	"GBP/USD": "GBPUSDT",
	"USD/JPY": "USDTJPY",
}

// IsSupported reports whether the pair is in the supported set.
func IsSupported(pair string) bool {
	for _, p := range SupportedPairs {
		if p == pair {
			return true
		}
	}
	return false
}

// ResolveSymbol converts a supported pair to its provider symbol.
func ResolveSymbol(pair string) (string, error) {
	if !IsSupported(pair) {
		return "", fmt.Errorf("unsupported trading pair: %s", pair)
	}
	if sym, ok := symbolOverrides[pair]; ok {
		return sym, nil
	}
	return strings.ReplaceAll(pair, "/", ""), nil
}

// MatchPair finds a supported pair referenced inside free-form user text.
// Matching is case-insensitive, whitespace-stripped and slash-insensitive, so
// "btcusdt", "BTC/USDT" and "btc usdt" all resolve to "BTC/USDT".
func MatchPair(text string) (string, bool) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(text), ""))
	normalized = strings.ReplaceAll(normalized, "/", "")
	for _, pair := range SupportedPairs {
		compact := strings.ReplaceAll(pair, "/", "")
		if strings.Contains(normalized, compact) {
			return pair, true
		}
	}
	return "", false
}
