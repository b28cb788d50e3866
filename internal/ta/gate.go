package ta

import "math"

// Trend is the higher-timeframe verdict applied to every lower-timeframe bar.
type Trend int

const (
	TrendNone Trend = iota
	TrendBullish
	TrendBearish
)

// GateFunc derives a single Trend from a higher-timeframe close series.
// The verdict is broadcast across the whole lower-timeframe series rather
// than joined bar by bar. That is a deliberate inherited simplification;
// callers wanting time-aligned gating supply their own GateFunc.
type GateFunc func(higher []float64) (Trend, error)

// LatestMACDTrend reads only the latest defined sample of the higher
// series' MACD: macd above its signal line is bullish, otherwise bearish.
func LatestMACDTrend(fast, slow, signal int) GateFunc {
	return func(higher []float64) (Trend, error) {
		macd, sig, _, err := MACDSeries(higher, fast, slow, signal)
		if err != nil {
			return TrendNone, err
		}
		for i := len(macd) - 1; i >= 0; i-- {
			if math.IsNaN(macd[i]) || math.IsNaN(sig[i]) {
				continue
			}
			if macd[i] > sig[i] {
				return TrendBullish, nil
			}
			return TrendBearish, nil
		}
		return TrendNone, nil
	}
}
