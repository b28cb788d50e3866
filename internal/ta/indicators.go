package ta

import (
	"fmt"
	"math"

	"tradewinds/internal/domain"
)

// Series functions are pure: they never mutate their input and allocate a
// fresh output of the same length. Warm-up samples are NaN so that output
// index i always lines up with input index i.

// EMASeries computes an exponential moving average with alpha = 2/(period+1).
// The first period-1 samples are NaN; index period-1 is seeded with the SMA
// of the first period values.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("%w: ema period %d", domain.ErrInvalidParameters, period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("%w: ema needs %d values, got %d", domain.ErrInsufficientData, period, len(values))
	}

	out := make([]float64, len(values))
	var seed float64
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
		seed += values[i]
	}
	seed += values[period-1]
	out[period-1] = seed / float64(period)

	alpha := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// RSISeries computes the Relative Strength Index using Wilder smoothing:
// SMA seed over the first period deltas, then
// avg = (avg*(period-1) + x) / period. Defined from index period onward.
// A zero average loss clamps to 100, never NaN.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("%w: rsi period %d", domain.ErrInvalidParameters, period)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("%w: rsi needs %d closes, got %d", domain.ErrInsufficientData, period+1, len(closes))
	}

	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	out[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out, nil
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDSeries computes macd = EMA(fast) - EMA(slow), signal = EMA(macd, signal)
// and histogram = macd - signal. The macd line is defined from index slow-1,
// the signal line and histogram from index slow+signalPeriod-2.
func MACDSeries(values []float64, fast, slow, signalPeriod int) (macd, signal, hist []float64, err error) {
	if fast < 1 || signalPeriod < 1 || slow <= fast {
		return nil, nil, nil, fmt.Errorf("%w: macd periods fast=%d slow=%d signal=%d",
			domain.ErrInvalidParameters, fast, slow, signalPeriod)
	}
	if len(values) < slow+signalPeriod-1 {
		return nil, nil, nil, fmt.Errorf("%w: macd needs %d values, got %d",
			domain.ErrInsufficientData, slow+signalPeriod-1, len(values))
	}

	fastEMA, err := EMASeries(values, fast)
	if err != nil {
		return nil, nil, nil, err
	}
	slowEMA, err := EMASeries(values, slow)
	if err != nil {
		return nil, nil, nil, err
	}

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i] // NaN until slow-1 by propagation
	}

	signal = make([]float64, len(values))
	hist = make([]float64, len(values))
	for i := 0; i < slow-1; i++ {
		signal[i] = math.NaN()
		hist[i] = math.NaN()
	}
	tail, err := EMASeries(macd[slow-1:], signalPeriod)
	if err != nil {
		return nil, nil, nil, err
	}
	for i, v := range tail {
		signal[slow-1+i] = v
		hist[slow-1+i] = macd[slow-1+i] - v
	}
	return macd, signal, hist, nil
}

// TrueRange for a bar given its predecessor's close.
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// ATR is the arithmetic mean of the True Range over the last period bars.
// Requires period+1 bars so every bar in the window has a predecessor close.
func ATR(bars []*domain.Candle, period int) (float64, error) {
	if period < 1 {
		return 0, fmt.Errorf("%w: atr period %d", domain.ErrInvalidParameters, period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: atr needs %d bars, got %d", domain.ErrInsufficientData, period+1, len(bars))
	}

	var sum float64
	start := len(bars) - period
	for i := start; i < len(bars); i++ {
		sum += TrueRange(bars[i].High, bars[i].Low, bars[i-1].Close)
	}
	return sum / float64(period), nil
}
