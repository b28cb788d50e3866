package domain

import "time"

// Action is the discrete classification an indicator assigns to a bar.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Strategy codes identify which signal family produced a TradingSignal.
const (
	StrategyRSI  = "SC01"
	StrategyMACD = "SC02"
	StrategyDual = "SC03"
)

// SupportedStrategies lists all strategy codes the pipeline accepts.
var SupportedStrategies = []string{StrategyRSI, StrategyMACD, StrategyDual}

// Signal statuses. "takeprofit" marks a coarse 12-bar upward momentum read,
// "pending" everything else. Not a strategy-grade filter.
const (
	StatusTakeProfit = "takeprofit"
	StatusPending    = "pending"
)

// TradingSignal is an emitted long entry with ATR-derived levels.
// Immutable once created.
type TradingSignal struct {
	Symbol       string    `json:"symbol"`
	StrategyCode string    `json:"strategy_code"`
	Exchange     string    `json:"exchange"`
	EntryPrice   float64   `json:"entry_price"`
	TPPrice      float64   `json:"tp_price"`
	SLPrice      float64   `json:"sl_price"`
	RiskPct      float64   `json:"risk_percentage"`
	Status       string    `json:"status"`
	Imminent     bool      `json:"imminent"`
	CreatedAt    time.Time `json:"created_at"`
}

// RejectionTier identifies which dedup rule declined a candidate signal.
type RejectionTier string

const (
	TierExact   RejectionTier = "exact"
	TierNear    RejectionTier = "near_duplicate"
	TierRecency RejectionTier = "recency_window"
)

// Rejection reports a declined candidate. A rejection is a dedup decision,
// not a failure.
type Rejection struct {
	Tier     RejectionTier  `json:"tier"`
	Existing *TradingSignal `json:"existing,omitempty"`
}
