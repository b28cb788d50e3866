package ta

import (
	"fmt"
	"math"
	"strings"

	"tradewinds/internal/domain"
)

// Indicator names accepted by New.
const (
	NameEMA  = "ema"
	NameRSI  = "rsi"
	NameMACD = "macd"
	NameDual = "dual"
)

// Default parameters applied where the caller leaves them zero.
const (
	DefaultEMAPeriod     = 20
	DefaultRSIPeriod     = 14
	DefaultMACDFast      = 12
	DefaultMACDSlow      = 26
	DefaultMACDSignal    = 9
	DefaultRSIOversold   = 30.0
	DefaultRSIOverbought = 70.0
)

// Indicator is the uniform contract shared by all indicator strategies.
// Calculate returns the primary value series (same length as the input,
// NaN during warm-up); Actions classifies every bar as BUY, SELL or HOLD.
type Indicator interface {
	Name() string
	Calculate(closes []float64) ([]float64, error)
	Actions(closes []float64) ([]domain.Action, error)
}

// Params configures an indicator built by New. Zero fields take defaults.
type Params struct {
	Period               int     // EMA and RSI lookback
	Fast, Slow, Signal   int     // MACD periods
	Oversold, Overbought float64 // RSI bands

	// HigherTF optionally gates dual-strategy actions with the trend read
	// from a higher-timeframe close series.
	HigherTF []float64
	// Gate overrides how the higher-timeframe trend is derived.
	// Defaults to LatestMACDTrend.
	Gate GateFunc
}

// New builds an indicator by name. Unknown names fail with invalid
// parameters; nothing falls back to a default indicator.
func New(name string, p Params) (Indicator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameEMA:
		return &EMA{Period: orDefault(p.Period, DefaultEMAPeriod)}, nil
	case NameRSI:
		return newRSI(p), nil
	case NameMACD:
		return newMACD(p), nil
	case NameDual:
		d := &Dual{
			RSI:      *newRSI(p),
			MACD:     *newMACD(p),
			HigherTF: p.HigherTF,
			Gate:     p.Gate,
		}
		if d.Gate == nil {
			d.Gate = LatestMACDTrend(d.MACD.Fast, d.MACD.Slow, d.MACD.Signal)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unknown indicator %q", domain.ErrInvalidParameters, name)
	}
}

// ForStrategy maps a pipeline strategy code to its indicator.
func ForStrategy(code string, p Params) (Indicator, error) {
	switch code {
	case domain.StrategyRSI:
		return New(NameRSI, p)
	case domain.StrategyMACD:
		return New(NameMACD, p)
	case domain.StrategyDual:
		return New(NameDual, p)
	default:
		return nil, fmt.Errorf("%w: unknown strategy code %q", domain.ErrInvalidParameters, code)
	}
}

func newRSI(p Params) *RSI {
	r := &RSI{
		Period:     orDefault(p.Period, DefaultRSIPeriod),
		Oversold:   p.Oversold,
		Overbought: p.Overbought,
	}
	if r.Oversold == 0 {
		r.Oversold = DefaultRSIOversold
	}
	if r.Overbought == 0 {
		r.Overbought = DefaultRSIOverbought
	}
	return r
}

func newMACD(p Params) *MACD {
	return &MACD{
		Fast:   orDefault(p.Fast, DefaultMACDFast),
		Slow:   orDefault(p.Slow, DefaultMACDSlow),
		Signal: orDefault(p.Signal, DefaultMACDSignal),
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// EMA is the exponential moving average. It carries no entry rule of its
// own, so every defined sample classifies as HOLD.
type EMA struct {
	Period int
}

func (e *EMA) Name() string { return NameEMA }

func (e *EMA) Calculate(closes []float64) ([]float64, error) {
	return EMASeries(closes, e.Period)
}

func (e *EMA) Actions(closes []float64) ([]domain.Action, error) {
	values, err := e.Calculate(closes)
	if err != nil {
		return nil, err
	}
	actions := make([]domain.Action, len(values))
	for i := range actions {
		actions[i] = domain.ActionHold
	}
	return actions, nil
}

// RSI classifies oversold bars as BUY and overbought bars as SELL.
type RSI struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func (r *RSI) Name() string { return NameRSI }

func (r *RSI) Calculate(closes []float64) ([]float64, error) {
	return RSISeries(closes, r.Period)
}

func (r *RSI) Actions(closes []float64) ([]domain.Action, error) {
	values, err := r.Calculate(closes)
	if err != nil {
		return nil, err
	}
	actions := make([]domain.Action, len(values))
	for i, v := range values {
		actions[i] = r.classify(v)
	}
	return actions, nil
}

// classify checks the oversold band first; an overbought reading overrides
// it, though the two bands never overlap for sane thresholds.
func (r *RSI) classify(rsi float64) domain.Action {
	if math.IsNaN(rsi) {
		return domain.ActionHold
	}
	action := domain.ActionHold
	if rsi < r.Oversold {
		action = domain.ActionBuy
	}
	if rsi > r.Overbought {
		action = domain.ActionSell
	}
	return action
}

// MACD fires only on the bar where the macd line crosses its signal line.
type MACD struct {
	Fast   int
	Slow   int
	Signal int
}

func (m *MACD) Name() string { return NameMACD }

// Calculate returns the macd line; Lines exposes all three series.
func (m *MACD) Calculate(closes []float64) ([]float64, error) {
	macd, _, _, err := MACDSeries(closes, m.Fast, m.Slow, m.Signal)
	return macd, err
}

func (m *MACD) Lines(closes []float64) (macd, signal, hist []float64, err error) {
	return MACDSeries(closes, m.Fast, m.Slow, m.Signal)
}

func (m *MACD) Actions(closes []float64) ([]domain.Action, error) {
	macd, signal, _, err := MACDSeries(closes, m.Fast, m.Slow, m.Signal)
	if err != nil {
		return nil, err
	}
	return crossoverActions(macd, signal), nil
}

// crossoverActions fires BUY on the bar where macd transitions from at or
// below the signal line to above it, SELL on the symmetric transition.
// Bars without a defined predecessor are always HOLD, so a held state never
// re-fires.
func crossoverActions(macd, signal []float64) []domain.Action {
	actions := make([]domain.Action, len(macd))
	for i := range actions {
		actions[i] = domain.ActionHold
	}
	for i := 1; i < len(macd); i++ {
		prev := macd[i-1] - signal[i-1]
		cur := macd[i] - signal[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		if prev <= 0 && cur > 0 {
			actions[i] = domain.ActionBuy
		} else if prev >= 0 && cur < 0 {
			actions[i] = domain.ActionSell
		}
	}
	return actions
}

// Dual combines RSI bands with MACD crossovers: BUY only when the bar is
// both oversold and an upward cross, SELL only when overbought and a
// downward cross. An optional higher-timeframe series gates the result.
type Dual struct {
	RSI  RSI
	MACD MACD

	HigherTF []float64
	Gate     GateFunc
}

func (d *Dual) Name() string { return NameDual }

// Calculate returns the RSI series as the primary values.
func (d *Dual) Calculate(closes []float64) ([]float64, error) {
	return d.RSI.Calculate(closes)
}

func (d *Dual) Actions(closes []float64) ([]domain.Action, error) {
	rsiActions, err := d.RSI.Actions(closes)
	if err != nil {
		return nil, err
	}
	macdActions, err := d.MACD.Actions(closes)
	if err != nil {
		return nil, err
	}

	trend := TrendNone
	if len(d.HigherTF) > 0 {
		trend, err = d.Gate(d.HigherTF)
		if err != nil {
			return nil, err
		}
	}

	actions := make([]domain.Action, len(closes))
	for i := range actions {
		actions[i] = domain.ActionHold
		switch {
		case rsiActions[i] == domain.ActionBuy && macdActions[i] == domain.ActionBuy:
			if trend == TrendNone || trend == TrendBullish {
				actions[i] = domain.ActionBuy
			}
		case rsiActions[i] == domain.ActionSell && macdActions[i] == domain.ActionSell:
			if trend == TrendNone || trend == TrendBearish {
				actions[i] = domain.ActionSell
			}
		}
	}
	return actions, nil
}
