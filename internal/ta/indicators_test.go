package ta

import (
	"errors"
	"math"
	"testing"

	"tradewinds/internal/domain"
)

func TestEMASeriesLengthAndWarmup(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out, err := EMASeries(values, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(values) {
		t.Fatalf("expected output length %d, got %d", len(values), len(out))
	}
	for i := 0; i < 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("expected NaN warm-up at index %d, got %f", i, out[i])
		}
	}
	for i := 3; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			t.Fatalf("expected defined value at index %d", i)
		}
	}
	if out[3] != 2.5 {
		t.Fatalf("expected SMA seed 2.5, got %f", out[3])
	}
}

func TestEMASeriesConvergesToConstantInput(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 42.0
	}
	out, err := EMASeries(values, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out[len(out)-1]-42.0) > 1e-9 {
		t.Fatalf("expected convergence to 42, got %f", out[len(out)-1])
	}
}

func TestEMASeriesErrors(t *testing.T) {
	if _, err := EMASeries([]float64{1, 2}, 5); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	if _, err := EMASeries([]float64{1, 2}, 0); !errors.Is(err, domain.ErrInvalidParameters) {
		t.Fatalf("expected invalid parameters, got %v", err)
	}
}

func TestRSISeriesBounds(t *testing.T) {
	values := []float64{
		44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1,
		45.9, 46.3, 46.4, 46.2, 46.0, 46.5, 46.2, 46.1, 45.6, 46.3,
	}
	out, err := RSISeries(values, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(values) {
		t.Fatalf("expected output length %d, got %d", len(values), len(out))
	}
	for i, v := range out {
		if math.IsNaN(v) {
			if i >= 14 {
				t.Fatalf("expected defined RSI at index %d", i)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of bounds at index %d: %f", i, v)
		}
	}
}

func TestRSISeriesZeroLossClampsTo100(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1) // strictly rising, avgLoss == 0
	}
	out, err := RSISeries(values, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := out[len(out)-1]
	if last != 100 {
		t.Fatalf("expected clamp to 100, got %f", last)
	}
}

func TestRSISeriesInsufficientData(t *testing.T) {
	if _, err := RSISeries([]float64{1, 2, 3}, 14); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
}

func TestMACDSeriesShape(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + math.Sin(float64(i)/5)*10
	}
	macd, signal, hist, err := MACDSeries(values, 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(macd) != len(values) || len(signal) != len(values) || len(hist) != len(values) {
		t.Fatal("expected output lengths to equal input length")
	}
	if !math.IsNaN(macd[24]) || math.IsNaN(macd[25]) {
		t.Fatal("expected macd line defined from index slow-1")
	}
	if !math.IsNaN(signal[32]) || math.IsNaN(signal[33]) {
		t.Fatal("expected signal line defined from index slow+signal-2")
	}
	for i := 33; i < len(values); i++ {
		if math.Abs(hist[i]-(macd[i]-signal[i])) > 1e-9 {
			t.Fatalf("histogram mismatch at index %d", i)
		}
	}
}

func TestMACDSeriesErrors(t *testing.T) {
	if _, _, _, err := MACDSeries(make([]float64, 10), 12, 26, 9); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	if _, _, _, err := MACDSeries(make([]float64, 60), 26, 12, 9); !errors.Is(err, domain.ErrInvalidParameters) {
		t.Fatalf("expected invalid parameters, got %v", err)
	}
}

func TestCrossoverFiresOnlyOnTransitionBar(t *testing.T) {
	nan := math.NaN()
	macd := []float64{nan, -1, 1, 2, 1, -1, -2}
	signal := []float64{nan, 0, 0, 0, 0, 0, 0}

	actions := crossoverActions(macd, signal)

	want := []domain.Action{
		domain.ActionHold, // no predecessor
		domain.ActionHold, // predecessor undefined
		domain.ActionBuy,  // transition bar
		domain.ActionHold, // held above, must not re-fire
		domain.ActionHold,
		domain.ActionSell, // downward transition
		domain.ActionHold,
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("index %d: expected %s, got %s", i, want[i], actions[i])
		}
	}
}

func TestATRKnownValue(t *testing.T) {
	bars := []*domain.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},  // TR = 2
		{High: 12, Low: 10, Close: 11}, // TR = 2
		{High: 15, Low: 11, Close: 14}, // TR = 4
	}
	atr, err := ATR(bars, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(atr-8.0/3.0) > 1e-9 {
		t.Fatalf("expected ATR %f, got %f", 8.0/3.0, atr)
	}
}

func TestATRInsufficientData(t *testing.T) {
	bars := []*domain.Candle{{High: 10, Low: 8, Close: 9}}
	if _, err := ATR(bars, 20); !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
}

func TestTrueRangeUsesGaps(t *testing.T) {
	// Gap up: |high - prevClose| dominates high - low.
	if tr := TrueRange(20, 18, 15); tr != 5 {
		t.Fatalf("expected TR 5, got %f", tr)
	}
	// Gap down: |low - prevClose| dominates.
	if tr := TrueRange(12, 10, 15); tr != 5 {
		t.Fatalf("expected TR 5, got %f", tr)
	}
}
