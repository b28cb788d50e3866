package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tradewinds/internal/domain"
	"tradewinds/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const tickerCacheTTL = 90 * time.Second

// ProviderSource resolves the upstream provider for an exchange.
type ProviderSource interface {
	For(exchange string) (provider.MarketDataProvider, error)
}

// BarStore is the persistence surface MarketData writes through to.
type BarStore interface {
	UpsertBars(ctx context.Context, bars []*domain.Candle) error
	GetBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketData is the single collaborator the pipeline fetches prices and
// bars through. It fans out to per-exchange providers, writes fetched bars
// through to Postgres and keeps ticker snapshots warm in Redis. Both the
// store and Redis are optional.
type MarketData struct {
	tracer    trace.Tracer
	providers ProviderSource
	store     BarStore
	redis     RedisClient
}

func NewMarketData(tracer trace.Tracer, providers ProviderSource, store BarStore, redisClient RedisClient) *MarketData {
	return &MarketData{
		tracer:    tracer,
		providers: providers,
		store:     store,
		redis:     redisClient,
	}
}

// FetchPrice performs a live upstream price lookup. The short-TTL memo in
// front of it lives in the pricecache package; this method always goes out.
func (s *MarketData) FetchPrice(ctx context.Context, symbol, exchange string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "market-data.fetch-price")
	defer span.End()

	snap, err := s.fetchTicker(ctx, symbol, exchange)
	if err != nil {
		return 0, err
	}
	return snap.PriceUSD, nil
}

// GetTicker returns the latest ticker snapshot, served from the Redis
// snapshot cache when fresh.
func (s *MarketData) GetTicker(ctx context.Context, symbol, exchange string) (*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-data.get-ticker")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getTickerCache(ctx, symbol, exchange)
		if err != nil {
			log.Printf("redis ticker read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}
	return s.fetchTicker(ctx, symbol, exchange)
}

func (s *MarketData) fetchTicker(ctx context.Context, symbol, exchange string) (*domain.PriceSnapshot, error) {
	p, err := s.providers.For(exchange)
	if err != nil {
		return nil, err
	}

	snap, err := p.FetchTicker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: ticker for %s on %s: %v", domain.ErrDataUnavailable, symbol, exchange, err)
	}
	if snap.Exchange == "" {
		snap.Exchange = exchange
	}

	if s.redis != nil {
		if err := s.setTickerCache(ctx, snap); err != nil {
			log.Printf("redis ticker write error for %s: %v", symbol, err)
		}
	}
	return snap, nil
}

// GetBars fetches recent bars upstream and writes them through to the
// store. When the upstream is down, previously stored bars are served
// instead; only a miss on both sides is a data-unavailable failure.
func (s *MarketData) GetBars(ctx context.Context, symbol, interval string, limit int, exchange string) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-data.get-bars")
	defer span.End()

	p, err := s.providers.For(exchange)
	if err != nil {
		return nil, err
	}

	bars, err := p.FetchCandles(ctx, symbol, interval, limit)
	if err == nil && len(bars) > 0 {
		if s.store != nil {
			if storeErr := s.store.UpsertBars(ctx, bars); storeErr != nil {
				log.Printf("bar write-through error for %s: %v", symbol, storeErr)
			}
		}
		return bars, nil
	}

	if s.store != nil {
		stored, storeErr := s.store.GetBars(ctx, symbol, interval, limit)
		if storeErr == nil && len(stored) > 0 {
			log.Printf("serving %d stored bars for %s after fetch failure: %v", len(stored), symbol, err)
			return stored, nil
		}
	}
	return nil, fmt.Errorf("%w: bars for %s %s on %s: %v", domain.ErrDataUnavailable, symbol, interval, exchange, err)
}

// StoredBars reads bars from the store only, for the history API.
func (s *MarketData) StoredBars(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-data.stored-bars")
	defer span.End()

	if s.store == nil {
		return nil, fmt.Errorf("%w: bar persistence disabled", domain.ErrDataUnavailable)
	}
	return s.store.GetBars(ctx, symbol, interval, limit)
}

func (s *MarketData) setTickerCache(ctx context.Context, snap *domain.PriceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, tickerKey(snap.Symbol, snap.Exchange), data, tickerCacheTTL).Err()
}

func (s *MarketData) getTickerCache(ctx context.Context, symbol, exchange string) (*domain.PriceSnapshot, error) {
	data, err := s.redis.Get(ctx, tickerKey(symbol, exchange)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.PriceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func tickerKey(symbol, exchange string) string {
	if exchange == "" {
		exchange = domain.DefaultExchange
	}
	return "ticker:" + exchange + ":" + symbol
}
