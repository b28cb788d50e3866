package provider

import (
	"context"
	"fmt"
	"strings"

	"tradewinds/internal/domain"
)

// MarketDataProvider is the per-exchange upstream contract consumed by the
// market data service.
type MarketDataProvider interface {
	FetchTicker(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// Registry maps exchange names to providers. An empty exchange falls back
// to the default.
type Registry struct {
	providers map[string]MarketDataProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]MarketDataProvider)}
}

// Register adds a provider under an exchange name, replacing any previous one.
func (r *Registry) Register(exchange string, p MarketDataProvider) {
	r.providers[strings.ToLower(exchange)] = p
}

// For resolves the provider for an exchange. Unknown exchanges surface as
// data unavailability, not a silent fallback to another venue.
func (r *Registry) For(exchange string) (MarketDataProvider, error) {
	if exchange == "" {
		exchange = domain.DefaultExchange
	}
	p, ok := r.providers[strings.ToLower(exchange)]
	if !ok {
		return nil, fmt.Errorf("%w: no provider for exchange %q", domain.ErrDataUnavailable, exchange)
	}
	return p, nil
}
