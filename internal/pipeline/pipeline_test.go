package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradewinds/internal/domain"
	"tradewinds/internal/ledger"
	"tradewinds/internal/levels"

	"go.opentelemetry.io/otel/trace"
)

type stubPrices struct {
	price float64
	err   error
}

func (s *stubPrices) Get(ctx context.Context, symbol, exchange string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

type stubBars struct {
	bars  []*domain.Candle
	err   error
	delay time.Duration
}

func (s *stubBars) GetBars(ctx context.Context, symbol, interval string, limit int, exchange string) ([]*domain.Candle, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.bars, nil
}

// uptrendBars builds a 30-bar uptrend with a 2-point true range per bar.
func uptrendBars() []*domain.Candle {
	bars := make([]*domain.Candle, 30)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = &domain.Candle{
			Symbol:   "BTC",
			Interval: "1h",
			OpenTime: time.Now().Add(time.Duration(i-30) * time.Hour),
			Open:     c - 1,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
		}
	}
	return bars
}

func newTestPipeline(prices PriceSource, bars BarSource, opts Options) *Pipeline {
	return New(
		trace.NewNoopTracerProvider().Tracer("test"),
		prices,
		bars,
		levels.NewCalculator(20, 1.5, 2.0, 0.5),
		ledger.New(ledger.Options{}),
		opts,
	)
}

func TestGenerateUptrendAccepted(t *testing.T) {
	bars := uptrendBars()
	current := bars[len(bars)-1].Close
	p := newTestPipeline(&stubPrices{price: current}, &stubBars{bars: bars}, Options{})

	sig, rej, err := p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rej != nil {
		t.Fatalf("unexpected rejection: %s", rej.Tier)
	}
	if sig.Status != domain.StatusTakeProfit {
		t.Fatalf("expected takeprofit status on an uptrend, got %s", sig.Status)
	}
	if !sig.Imminent {
		t.Fatal("current price equals entry, expected imminent")
	}
	if sig.EntryPrice <= 0 || sig.TPPrice <= sig.EntryPrice || sig.SLPrice >= sig.EntryPrice {
		t.Fatalf("level ordering broken: %+v", sig)
	}
	if sig.Exchange != domain.DefaultExchange {
		t.Fatalf("expected default exchange, got %s", sig.Exchange)
	}

	if got := p.Signals("BTC"); len(got) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(got))
	}
}

func TestGenerateSecondCallRejectedExact(t *testing.T) {
	bars := uptrendBars()
	current := bars[len(bars)-1].Close
	p := newTestPipeline(&stubPrices{price: current}, &stubBars{bars: bars}, Options{})

	if _, rej, err := p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, ""); err != nil || rej != nil {
		t.Fatalf("first call should be accepted: rej=%v err=%v", rej, err)
	}
	sig, rej, err := p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil || rej == nil {
		t.Fatal("identical second call should be rejected")
	}
	if rej.Tier != domain.TierExact {
		t.Fatalf("expected exact tier, got %s", rej.Tier)
	}
}

func TestGenerateDifferentStrategyAccepted(t *testing.T) {
	bars := uptrendBars()
	current := bars[len(bars)-1].Close
	p := newTestPipeline(&stubPrices{price: current}, &stubBars{bars: bars}, Options{})

	p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, "")
	sig, rej, err := p.Generate(context.Background(), "BTC", domain.StrategyRSI, 2.0, "")
	if err != nil || rej != nil || sig == nil {
		t.Fatalf("different strategy code should be accepted: sig=%v rej=%v err=%v", sig, rej, err)
	}
}

func TestGeneratePriceFailureAborts(t *testing.T) {
	p := newTestPipeline(
		&stubPrices{err: domain.ErrDataUnavailable},
		&stubBars{bars: uptrendBars()},
		Options{},
	)
	_, _, err := p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, "")
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
	if n := len(p.Signals("")); n != 0 {
		t.Fatalf("no signal should be recorded on failure, ledger has %d", n)
	}
}

func TestGenerateBarFailureAborts(t *testing.T) {
	p := newTestPipeline(
		&stubPrices{price: 100},
		&stubBars{err: domain.ErrDataUnavailable},
		Options{},
	)
	if _, _, err := p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, ""); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
}

func TestGenerateStalledCollaboratorTimesOut(t *testing.T) {
	p := newTestPipeline(
		&stubPrices{price: 100},
		&stubBars{bars: uptrendBars(), delay: time.Second},
		Options{FetchTimeout: 20 * time.Millisecond},
	)
	if _, _, err := p.Generate(context.Background(), "BTC", domain.StrategyMACD, 2.0, ""); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable on timeout, got %v", err)
	}
}

func TestGenerateUnknownStrategy(t *testing.T) {
	p := newTestPipeline(&stubPrices{price: 100}, &stubBars{bars: uptrendBars()}, Options{})
	if _, _, err := p.Generate(context.Background(), "BTC", "SC99", 2.0, ""); !errors.Is(err, domain.ErrInvalidParameters) {
		t.Fatalf("expected invalid parameters, got %v", err)
	}
}

func TestMomentumStatusReferenceBar(t *testing.T) {
	// The reference close is the 12th bar from the end, index len-12. Make
	// it disagree with the bar one further back so an off-by-one shows up.
	bars := uptrendBars()
	bars[17].Close = 100
	bars[18].Close = 90
	bars[29].Close = 95
	if got := momentumStatus(bars); got != domain.StatusTakeProfit {
		t.Fatalf("expected takeprofit with latest close 95 above reference 90, got %s", got)
	}

	bars[18].Close = 96
	if got := momentumStatus(bars); got != domain.StatusPending {
		t.Fatalf("expected pending with latest close 95 below reference 96, got %s", got)
	}
}

func TestMomentumStatusPendingOnDowntrend(t *testing.T) {
	bars := uptrendBars()
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	if got := momentumStatus(bars); got != domain.StatusPending {
		t.Fatalf("expected pending on a downtrend, got %s", got)
	}
}
