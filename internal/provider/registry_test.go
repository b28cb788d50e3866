package provider

import (
	"context"
	"errors"
	"testing"

	"tradewinds/internal/domain"
)

type stubProvider struct{}

func (stubProvider) FetchTicker(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	return &domain.PriceSnapshot{Symbol: symbol}, nil
}
func (stubProvider) FetchPrice(ctx context.Context, symbol string) (float64, error) { return 1, nil }
func (stubProvider) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	return nil, nil
}

func TestRegistryResolvesCaseInsensitively(t *testing.T) {
	r := NewRegistry()
	r.Register("Binance", stubProvider{})

	if _, err := r.For("binance"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.For("BINANCE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryEmptyExchangeUsesDefault(t *testing.T) {
	r := NewRegistry()
	r.Register(domain.DefaultExchange, stubProvider{})

	if _, err := r.For(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryUnknownExchange(t *testing.T) {
	r := NewRegistry()
	if _, err := r.For("kraken"); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
}
