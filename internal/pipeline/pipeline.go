// Package pipeline turns current price and recent bars into de-duplicated
// trading signals: price → levels → candidate → ledger decision.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradewinds/internal/domain"
	"tradewinds/internal/ledger"
	"tradewinds/internal/levels"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultFetchTimeout bounds each upstream fetch so a stalled
	// collaborator surfaces as data unavailability instead of blocking
	// the pipeline.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultBarLimit gives the level calculator and the momentum read
	// enough history with room to spare.
	DefaultBarLimit = 50

	// DefaultInterval is the bar interval signals are computed on.
	DefaultInterval = "1h"

	// momentumLookback is the bar offset for the coarse status read.
	momentumLookback = 12
)

// PriceSource is the TTL-memoized current-price lookup.
type PriceSource interface {
	Get(ctx context.Context, symbol, exchange string) (float64, error)
}

// BarSource supplies recent bars, oldest first.
type BarSource interface {
	GetBars(ctx context.Context, symbol, interval string, limit int, exchange string) ([]*domain.Candle, error)
}

// Pipeline orchestrates signal generation. Safe for concurrent use: the
// ledger and price cache serialize their own state.
type Pipeline struct {
	tracer trace.Tracer
	prices PriceSource
	bars   BarSource
	levels *levels.Calculator
	ledger *ledger.Ledger

	fetchTimeout time.Duration
	interval     string
	barLimit     int

	now func() time.Time
}

// Options tunes the pipeline. Zero fields take defaults.
type Options struct {
	FetchTimeout time.Duration
	Interval     string
	BarLimit     int
}

func New(tracer trace.Tracer, prices PriceSource, bars BarSource, calc *levels.Calculator, led *ledger.Ledger, opts Options) *Pipeline {
	p := &Pipeline{
		tracer:       tracer,
		prices:       prices,
		bars:         bars,
		levels:       calc,
		ledger:       led,
		fetchTimeout: opts.FetchTimeout,
		interval:     opts.Interval,
		barLimit:     opts.BarLimit,
		now:          time.Now,
	}
	if p.fetchTimeout <= 0 {
		p.fetchTimeout = DefaultFetchTimeout
	}
	if p.interval == "" {
		p.interval = DefaultInterval
	}
	if p.barLimit <= 0 {
		p.barLimit = DefaultBarLimit
	}
	return p
}

// Generate builds a candidate signal for symbol under strategyCode and
// submits it to the ledger. Exactly one of the three returns is set: the
// accepted signal, a dedup rejection, or an error. The first error aborts;
// nothing partial is ever returned.
func (p *Pipeline) Generate(ctx context.Context, symbol, strategyCode string, riskReward float64, exchange string) (*domain.TradingSignal, *domain.Rejection, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("strategy", strategyCode),
	)

	if !validStrategy(strategyCode) {
		return nil, nil, fmt.Errorf("%w: unknown strategy code %q", domain.ErrInvalidParameters, strategyCode)
	}
	if exchange == "" {
		exchange = domain.DefaultExchange
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	price, err := p.prices.Get(fetchCtx, symbol, exchange)
	if err != nil {
		return nil, nil, wrapFetchErr(err)
	}

	bars, err := p.bars.GetBars(fetchCtx, symbol, p.interval, p.barLimit, exchange)
	if err != nil {
		return nil, nil, wrapFetchErr(err)
	}
	if len(bars) == 0 {
		return nil, nil, fmt.Errorf("%w: no bars for %s", domain.ErrDataUnavailable, symbol)
	}

	lv, err := p.levels.Compute(price, bars, riskReward)
	if err != nil {
		return nil, nil, err
	}

	candidate := &domain.TradingSignal{
		Symbol:       symbol,
		StrategyCode: strategyCode,
		Exchange:     exchange,
		EntryPrice:   lv.Entry,
		TPPrice:      lv.TakeProfit,
		SLPrice:      lv.StopLoss,
		RiskPct:      lv.RiskPct,
		Status:       momentumStatus(bars),
		Imminent:     lv.Imminent,
		CreatedAt:    p.now(),
	}

	accepted, rejection := p.ledger.Submit(candidate)
	if !accepted {
		span.SetAttributes(attribute.String("rejected_tier", string(rejection.Tier)))
		return nil, rejection, nil
	}
	return candidate, nil, nil
}

// Signals exposes the ledger view, optionally filtered by symbol.
func (p *Pipeline) Signals(symbol string) []*domain.TradingSignal {
	return p.ledger.Signals(symbol)
}

// momentumStatus is a coarse 12-bar momentum proxy, deliberately not a
// strategy-grade filter: the latest close above the 12th-from-last close
// reads as takeprofit.
func momentumStatus(bars []*domain.Candle) string {
	last := len(bars) - 1
	ref := last - (momentumLookback - 1)
	if ref >= 0 && bars[last].Close > bars[ref].Close {
		return domain.StatusTakeProfit
	}
	return domain.StatusPending
}

func validStrategy(code string) bool {
	for _, c := range domain.SupportedStrategies {
		if c == code {
			return true
		}
	}
	return false
}

// wrapFetchErr folds deadline expiry into the data-unavailable class so
// callers see one failure mode for a stalled or failed collaborator.
func wrapFetchErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return err
}
