package job

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"tradewinds/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestNewScannerInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	scanner := NewScanner(tracer, &stubGenerator{}, &stubTickers{}, nil, 2)
	if scanner.scanInterval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", scanner.scanInterval)
	}
}

func TestScanAllCoversGrid(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	gen := &stubGenerator{}
	scanner := NewScanner(tracer, gen, &stubTickers{}, nil, 60)

	scanner.scanAll(context.Background())

	want := len(domain.SupportedSymbols) * len(domain.SupportedStrategies)
	if got := gen.calls(); got != want {
		t.Fatalf("expected %d generate calls, got %d", want, got)
	}
}

func TestScanAllNotifiesAcceptedOnly(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	gen := &stubGenerator{
		accept: func(symbol, strategy string) bool {
			return symbol == "BTC" && strategy == domain.StrategyMACD
		},
	}
	notifier := &stubNotifier{}
	scanner := NewScanner(tracer, gen, &stubTickers{}, notifier, 60)

	scanner.scanAll(context.Background())

	if len(notifier.signals) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.signals))
	}
	if notifier.signals[0].Symbol != "BTC" {
		t.Fatalf("unexpected notified symbol: %s", notifier.signals[0].Symbol)
	}
}

func TestScannerStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	gen := &stubGenerator{}
	scanner := NewScanner(tracer, gen, &stubTickers{}, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return gen.calls() > 0 })
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}

func TestRefreshTickers(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	tickers := &stubTickers{}
	scanner := NewScanner(tracer, &stubGenerator{}, tickers, nil, 60)

	scanner.refreshTickers(context.Background())

	if got := len(tickers.symbols); got != len(domain.SupportedSymbols) {
		t.Fatalf("expected %d ticker refreshes, got %d", len(domain.SupportedSymbols), got)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubGenerator struct {
	mu     sync.Mutex
	n      int
	accept func(symbol, strategy string) bool
}

func (s *stubGenerator) Generate(ctx context.Context, symbol, strategyCode string, riskReward float64, exchange string) (*domain.TradingSignal, *domain.Rejection, error) {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	if s.accept != nil && s.accept(symbol, strategyCode) {
		return &domain.TradingSignal{Symbol: symbol, StrategyCode: strategyCode, EntryPrice: 100}, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: no fresh data", domain.ErrDataUnavailable)
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

type stubTickers struct {
	symbols []string
}

func (s *stubTickers) GetTicker(ctx context.Context, symbol, exchange string) (*domain.PriceSnapshot, error) {
	s.symbols = append(s.symbols, symbol)
	return &domain.PriceSnapshot{Symbol: symbol}, nil
}

type stubNotifier struct {
	signals []*domain.TradingSignal
}

func (s *stubNotifier) NotifySignal(signal *domain.TradingSignal) {
	s.signals = append(s.signals, signal)
}
