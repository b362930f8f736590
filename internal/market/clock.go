package market

import "time"

// nowMillis anchors synthetic candle timestamps when no real candle exists.
// A variable so tests can pin the clock.
var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}
