package market

// Candle is a single OHLCV data point.
type Candle struct {
	Timestamp int64   `json:"timestamp"` // unix millis, open time
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Snapshot is the market state handed to the signal synthesizer. Candles is
// always exactly CandleCount entries, oldest to newest; shortfalls from the
// provider are padded with synthetic candles.
type Snapshot struct {
	Pair            string   `json:"pair"`
	CurrentPrice    float64  `json:"current_price"`
	Candles         []Candle `json:"candles"`
	PriceChange24h  float64  `json:"price_change_24h"`
	VolumeChange24h float64  `json:"volume_change_24h"`
}

// CandleCount is the fixed history length every snapshot carries.
const CandleCount = 100

// CandleIntervalMillis is the candle spacing used for synthetic timestamps.
const CandleIntervalMillis = 5 * 60 * 1000
