package domain

import "time"

// Candle represents a single OHLCV bar for an asset at a given interval.
// Bars are immutable once fetched.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// PriceSnapshot represents the latest ticker data for an asset on an exchange.
type PriceSnapshot struct {
	Symbol          string  `json:"symbol"`
	Exchange        string  `json:"exchange"`
	PriceUSD        float64 `json:"price_usd"`
	Volume24h       float64 `json:"volume_24h"`
	Change24hPct    float64 `json:"change_24h_pct"`
	LastUpdatedUnix int64   `json:"last_updated_unix"`
}

// Closes extracts the close-price series from a bar sequence, oldest first.
func Closes(candles []*Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// BinancePair maps internal symbols to Binance spot trading pairs.
var BinancePair = map[string]string{
	"BTC":  "BTCUSDT",
	"ETH":  "ETHUSDT",
	"SOL":  "SOLUSDT",
	"XRP":  "XRPUSDT",
	"ADA":  "ADAUSDT",
	"DOGE": "DOGEUSDT",
	"DOT":  "DOTUSDT",
	"AVAX": "AVAXUSDT",
	"LINK": "LINKUSDT",
	"BNB":  "BNBUSDT",
}

// SupportedSymbols lists all tracked crypto symbols.
var SupportedSymbols = []string{
	"BTC", "ETH", "SOL", "XRP", "ADA",
	"DOGE", "DOT", "AVAX", "LINK", "BNB",
}

// SupportedIntervals defines the candle intervals we fetch and store.
var SupportedIntervals = []string{"5m", "15m", "1h", "4h", "1d"}

// DefaultExchange is used when a request does not name one.
const DefaultExchange = "binance"
