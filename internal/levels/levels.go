// Package levels derives entry, take-profit and stop-loss prices from
// volatility (ATR) and the current price. Long-only: short-side synthesis
// is out of scope.
package levels

import (
	"fmt"
	"math"

	"tradewinds/internal/domain"
	"tradewinds/internal/ta"
)

const (
	DefaultATRPeriod    = 20
	DefaultSLMultiplier = 1.5
	DefaultRiskReward   = 2.0
	DefaultImminentPct  = 0.5
)

// Calculator computes trade levels. The zero value is not usable; construct
// with NewCalculator.
type Calculator struct {
	atrPeriod    int
	slMultiplier float64
	riskReward   float64
	imminentPct  float64
}

// Levels is a complete set of derived prices and risk metrics. Either all
// fields are valid or Compute returned an error; partial results are never
// produced.
type Levels struct {
	Entry      float64 `json:"entry_price"`
	TakeProfit float64 `json:"tp_price"`
	StopLoss   float64 `json:"sl_price"`
	ATR        float64 `json:"atr"`
	RiskPct    float64 `json:"risk_percentage"`
	Imminent   bool    `json:"imminent"`
}

func NewCalculator(atrPeriod int, slMultiplier, riskReward, imminentPct float64) *Calculator {
	c := &Calculator{
		atrPeriod:    atrPeriod,
		slMultiplier: slMultiplier,
		riskReward:   riskReward,
		imminentPct:  imminentPct,
	}
	if c.atrPeriod <= 0 {
		c.atrPeriod = DefaultATRPeriod
	}
	if c.slMultiplier <= 0 {
		c.slMultiplier = DefaultSLMultiplier
	}
	if c.riskReward <= 0 {
		c.riskReward = DefaultRiskReward
	}
	if c.imminentPct <= 0 {
		c.imminentPct = DefaultImminentPct
	}
	return c
}

// Compute derives levels from the current price and recent bars.
// riskReward overrides the calculator default when positive.
func (c *Calculator) Compute(currentPrice float64, bars []*domain.Candle, riskReward float64) (*Levels, error) {
	if currentPrice <= 0 || len(bars) == 0 {
		return nil, fmt.Errorf("%w: missing price or bars", domain.ErrDataUnavailable)
	}
	if riskReward <= 0 {
		riskReward = c.riskReward
	}

	atr, err := ta.ATR(bars, c.atrPeriod)
	if err != nil {
		return nil, err
	}

	slDistance := atr * c.slMultiplier
	if slDistance <= 0 {
		return nil, fmt.Errorf("%w: flat range, stop distance is zero", domain.ErrInvalidParameters)
	}
	tpDistance := slDistance * riskReward

	entry := RoundPrice(currentPrice)
	tp := RoundPrice(entry + tpDistance)
	sl := RoundPrice(entry - slDistance)
	if sl <= 0 || sl == entry {
		return nil, fmt.Errorf("%w: stop loss %f against entry %f", domain.ErrInvalidParameters, sl, entry)
	}

	riskPct := round2((entry - sl) / entry * 100)
	driftPct := math.Abs(currentPrice-entry) / entry * 100

	return &Levels{
		Entry:      entry,
		TakeProfit: tp,
		StopLoss:   sl,
		ATR:        atr,
		RiskPct:    riskPct,
		Imminent:   driftPct < c.imminentPct,
	}, nil
}

// RoundPrice applies the tiered precision policy: 6 decimals under 1,
// 4 under 10, 3 under 100, else 2. Reproducible output depends on this
// matching everywhere prices are rendered.
func RoundPrice(p float64) float64 {
	switch {
	case p < 1:
		return roundTo(p, 6)
	case p < 10:
		return roundTo(p, 4)
	case p < 100:
		return roundTo(p, 3)
	default:
		return roundTo(p, 2)
	}
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

func round2(v float64) float64 { return roundTo(v, 2) }
