package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"tradewinds/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceProvider fetches ticker and kline data from the Binance public
// spot API. No authentication is needed for either endpoint.
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewBinanceProvider creates a provider with built-in rate limiting.
// The public endpoints weight-limit generously; 20 requests per second
// keeps us far under it.
func NewBinanceProvider(tracer trace.Tracer) *BinanceProvider {
	return &BinanceProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: binanceBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(20, 50*time.Millisecond),
	}
}

// FetchTicker fetches the 24h rolling ticker for a symbol.
func (p *BinanceProvider) FetchTicker(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	_, span := p.tracer.Start(ctx, "binance.fetch-ticker")
	defer span.End()

	pair, ok := domain.BinancePair[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	url := fmt.Sprintf("%s/ticker/24hr?symbol=%s", p.baseURL, pair)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker for %s: %w", symbol, err)
	}

	var raw struct {
		LastPrice          string `json:"lastPrice"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse ticker for %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("parse ticker price for %s: %w", symbol, err)
	}
	volume, _ := strconv.ParseFloat(raw.QuoteVolume, 64)
	change, _ := strconv.ParseFloat(raw.PriceChangePercent, 64)

	return &domain.PriceSnapshot{
		Symbol:          symbol,
		Exchange:        domain.DefaultExchange,
		PriceUSD:        price,
		Volume24h:       volume,
		Change24hPct:    change,
		LastUpdatedUnix: time.Now().Unix(),
	}, nil
}

// FetchPrice returns just the last traded price for a symbol.
func (p *BinanceProvider) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	snap, err := p.FetchTicker(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return snap.PriceUSD, nil
}

// FetchCandles fetches up to limit klines for a symbol and interval,
// oldest first.
func (p *BinanceProvider) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	_, span := p.tracer.Start(ctx, "binance.fetch-candles")
	defer span.End()

	pair, ok := domain.BinancePair[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if limit <= 0 {
		limit = 100
	}

	url := fmt.Sprintf("%s/klines?symbol=%s&interval=%s&limit=%d", p.baseURL, pair, interval, limit)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}

	// Each kline is a mixed array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	// with prices and volume encoded as strings.
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse klines for %s: %w", symbol, err)
	}

	candles := make([]*domain.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		var openTimeMs int64
		if err := json.Unmarshal(k[0], &openTimeMs); err != nil {
			return nil, fmt.Errorf("parse kline open time for %s: %w", symbol, err)
		}
		fields := make([]float64, 5)
		for i := 1; i <= 5; i++ {
			var s string
			if err := json.Unmarshal(k[i], &s); err != nil {
				return nil, fmt.Errorf("parse kline field for %s: %w", symbol, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse kline value for %s: %w", symbol, err)
			}
			fields[i-1] = v
		}
		candles = append(candles, &domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(openTimeMs).UTC(),
			Open:     fields[0],
			High:     fields[1],
			Low:      fields[2],
			Close:    fields[3],
			Volume:   fields[4],
		})
	}
	return candles, nil
}

func (p *BinanceProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
