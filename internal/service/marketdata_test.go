package service

import (
	"context"
	"errors"
	"testing"

	"tradewinds/internal/domain"
	"tradewinds/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type stubProvider struct {
	price float64
	bars  []*domain.Candle
	err   error
}

func (p *stubProvider) FetchTicker(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &domain.PriceSnapshot{Symbol: symbol, PriceUSD: p.price}, nil
}

func (p *stubProvider) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.price, nil
}

func (p *stubProvider) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.bars, nil
}

type stubSource struct {
	p   provider.MarketDataProvider
	err error
}

func (s stubSource) For(exchange string) (provider.MarketDataProvider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.p, nil
}

type stubStore struct {
	upserted []*domain.Candle
	stored   []*domain.Candle
	err      error
}

func (s *stubStore) UpsertBars(ctx context.Context, bars []*domain.Candle) error {
	s.upserted = append(s.upserted, bars...)
	return s.err
}

func (s *stubStore) GetBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	return s.stored, s.err
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestFetchPriceUsesProvider(t *testing.T) {
	md := NewMarketData(testTracer(), stubSource{p: &stubProvider{price: 97000}}, nil, nil)

	price, err := md.FetchPrice(context.Background(), "BTC", "binance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 97000 {
		t.Fatalf("expected 97000, got %f", price)
	}
}

func TestFetchPriceWrapsProviderFailure(t *testing.T) {
	md := NewMarketData(testTracer(), stubSource{p: &stubProvider{err: errors.New("down")}}, nil, nil)

	if _, err := md.FetchPrice(context.Background(), "BTC", "binance"); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
}

func TestGetBarsWritesThrough(t *testing.T) {
	bars := []*domain.Candle{{Symbol: "BTC", Close: 100}, {Symbol: "BTC", Close: 101}}
	store := &stubStore{}
	md := NewMarketData(testTracer(), stubSource{p: &stubProvider{bars: bars}}, store, nil)

	got, err := md.GetBars(context.Background(), "BTC", "1h", 2, "binance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if len(store.upserted) != 2 {
		t.Fatalf("expected write-through of 2 bars, got %d", len(store.upserted))
	}
}

func TestGetBarsFallsBackToStore(t *testing.T) {
	store := &stubStore{stored: []*domain.Candle{{Symbol: "BTC", Close: 99}}}
	md := NewMarketData(testTracer(), stubSource{p: &stubProvider{err: errors.New("down")}}, store, nil)

	got, err := md.GetBars(context.Background(), "BTC", "1h", 10, "binance")
	if err != nil {
		t.Fatalf("expected stored fallback, got error: %v", err)
	}
	if len(got) != 1 || got[0].Close != 99 {
		t.Fatalf("unexpected fallback bars: %v", got)
	}
}

func TestGetBarsFailsWhenBothSidesMiss(t *testing.T) {
	store := &stubStore{}
	md := NewMarketData(testTracer(), stubSource{p: &stubProvider{err: errors.New("down")}}, store, nil)

	if _, err := md.GetBars(context.Background(), "BTC", "1h", 10, "binance"); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
}

func TestGetBarsUnknownExchange(t *testing.T) {
	srcErr := errors.New("no provider for exchange")
	md := NewMarketData(testTracer(), stubSource{err: srcErr}, nil, nil)

	if _, err := md.GetBars(context.Background(), "BTC", "1h", 10, "kraken"); !errors.Is(err, srcErr) {
		t.Fatalf("expected registry error to propagate, got %v", err)
	}
}
