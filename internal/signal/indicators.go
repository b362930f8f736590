package signal

import "math"

// ema computes an exponential moving average series over values.
func ema(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// sma computes a simple moving average of the last period values.
func sma(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period > len(values) {
		period = len(values)
	}

	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// rsi computes the relative strength index over the last period moves.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	if losses == 0 {
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// macd returns the MACD line and its signal line values at the latest candle.
func macd(closes []float64) (line, signalLine float64) {
	if len(closes) < 26 {
		return 0, 0
	}

	fast := ema(closes, 12)
	slow := ema(closes, 26)

	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fast[i] - slow[i]
	}

	signalSeries := ema(macdSeries, 9)
	return macdSeries[len(macdSeries)-1], signalSeries[len(signalSeries)-1]
}

// volatility is the standard deviation of close-to-close returns, in percent.
func volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	var mean float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		r := (closes[i] - closes[i-1]) / closes[i-1]
		returns = append(returns, r)
		mean += r
	}
	if len(returns) == 0 {
		return 0
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * 100
}
