package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	DatabaseURL      string
	RedisURL         string
	APIKey           string

	ScanIntervalSecs int
	FetchTimeoutSecs int
	CandleInterval   string
	CandleLimit      int

	PriceCacheTTLSecs int

	ATRPeriod       int
	SLMultiplier    float64
	RiskRewardRatio float64
	ImminentPct     float64

	NearDuplicatePct  float64
	RecencyWindowSecs int
	LedgerMaxAgeHours int
	LedgerMaxEntries  int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, signal generation endpoint is unauthenticated")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, notifications disabled", v)
		}
	}

	cfg.ScanIntervalSecs = 300
	if v := os.Getenv("SCAN_INTERVAL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScanIntervalSecs = n
		}
	}

	cfg.FetchTimeoutSecs = 10
	if v := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeoutSecs = n
		}
	}

	cfg.CandleInterval = strings.TrimSpace(os.Getenv("CANDLE_INTERVAL"))
	if cfg.CandleInterval == "" {
		cfg.CandleInterval = "1h"
	}

	cfg.CandleLimit = 50
	if v := strings.TrimSpace(os.Getenv("CANDLE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CandleLimit = n
		}
	}

	cfg.PriceCacheTTLSecs = 5
	if v := strings.TrimSpace(os.Getenv("PRICE_CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PriceCacheTTLSecs = n
		}
	}

	cfg.ATRPeriod = 20
	if v := strings.TrimSpace(os.Getenv("ATR_PERIOD")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ATRPeriod = n
		}
	}

	cfg.SLMultiplier = 1.5
	if v := strings.TrimSpace(os.Getenv("SL_MULTIPLIER")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.SLMultiplier = n
		}
	}

	cfg.RiskRewardRatio = 2.0
	if v := strings.TrimSpace(os.Getenv("RISK_REWARD_RATIO")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.RiskRewardRatio = n
		}
	}

	cfg.ImminentPct = 0.5
	if v := strings.TrimSpace(os.Getenv("IMMINENT_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.ImminentPct = n
		}
	}

	cfg.NearDuplicatePct = 0.001
	if v := strings.TrimSpace(os.Getenv("NEAR_DUPLICATE_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.NearDuplicatePct = n
		}
	}

	cfg.RecencyWindowSecs = 120
	if v := strings.TrimSpace(os.Getenv("RECENCY_WINDOW_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RecencyWindowSecs = n
		}
	}

	cfg.LedgerMaxAgeHours = 24
	if v := strings.TrimSpace(os.Getenv("LEDGER_MAX_AGE_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LedgerMaxAgeHours = n
		}
	}

	cfg.LedgerMaxEntries = 1000
	if v := strings.TrimSpace(os.Getenv("LEDGER_MAX_ENTRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LedgerMaxEntries = n
		}
	}

	return cfg
}
