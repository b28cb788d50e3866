// Package ledger keeps the in-memory record of emitted signals and decides
// whether a candidate is redundant. State does not survive a restart.
package ledger

import (
	"math"
	"sync"
	"time"

	"tradewinds/internal/domain"
)

const (
	// DefaultNearPct rejects candidates whose entry drifts less than 0.1%
	// from an existing signal of the same symbol and strategy.
	DefaultNearPct = 0.001
	// DefaultRecencyWindow rejects repeat signals for a symbol+strategy
	// regardless of price.
	DefaultRecencyWindow = 120 * time.Second

	// Retention bounds. Pruned entries can no longer match a dedup tier,
	// which is fine: every tier looks at a far shorter horizon.
	DefaultMaxAge     = 24 * time.Hour
	DefaultMaxEntries = 1000
)

// Options tunes dedup thresholds and retention. Zero fields take defaults.
type Options struct {
	NearPct       float64
	RecencyWindow time.Duration
	MaxAge        time.Duration
	MaxEntries    int
}

// Ledger is an insertion-ordered sequence of emitted signals shared by all
// concurrent generate calls. Every submit and read holds the same mutex, so
// the check-then-append sequence is atomic: two concurrent submissions can
// never both miss each other. Order reflects completed submissions, not
// request issue order.
type Ledger struct {
	mu      sync.Mutex
	signals []*domain.TradingSignal

	nearPct       float64
	recencyWindow time.Duration
	maxAge        time.Duration
	maxEntries    int

	now func() time.Time
}

func New(opts Options) *Ledger {
	l := &Ledger{
		nearPct:       opts.NearPct,
		recencyWindow: opts.RecencyWindow,
		maxAge:        opts.MaxAge,
		maxEntries:    opts.MaxEntries,
		now:           time.Now,
	}
	if l.nearPct <= 0 {
		l.nearPct = DefaultNearPct
	}
	if l.recencyWindow <= 0 {
		l.recencyWindow = DefaultRecencyWindow
	}
	if l.maxAge <= 0 {
		l.maxAge = DefaultMaxAge
	}
	if l.maxEntries <= 0 {
		l.maxEntries = DefaultMaxEntries
	}
	return l
}

// Submit appends the candidate unless one of the three ordered checks
// rejects it. The first matching tier is reported; any match rejects.
func (l *Ledger) Submit(candidate *domain.TradingSignal) (bool, *domain.Rejection) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	// Tier 1: exact price match.
	for _, s := range l.signals {
		if s.Symbol == candidate.Symbol && s.StrategyCode == candidate.StrategyCode &&
			s.EntryPrice == candidate.EntryPrice && s.TPPrice == candidate.TPPrice && s.SLPrice == candidate.SLPrice {
			return false, &domain.Rejection{Tier: domain.TierExact, Existing: s}
		}
	}
	// Tier 2: near-duplicate entry.
	for _, s := range l.signals {
		if s.Symbol == candidate.Symbol && s.StrategyCode == candidate.StrategyCode &&
			math.Abs(s.EntryPrice-candidate.EntryPrice)/candidate.EntryPrice < l.nearPct {
			return false, &domain.Rejection{Tier: domain.TierNear, Existing: s}
		}
	}
	// Tier 3: recency window, regardless of price.
	for _, s := range l.signals {
		if s.Symbol == candidate.Symbol && s.StrategyCode == candidate.StrategyCode &&
			now.Sub(s.CreatedAt) < l.recencyWindow {
			return false, &domain.Rejection{Tier: domain.TierRecency, Existing: s}
		}
	}

	l.signals = append(l.signals, candidate)
	if excess := len(l.signals) - l.maxEntries; excess > 0 {
		l.signals = append([]*domain.TradingSignal(nil), l.signals[excess:]...)
	}
	return true, nil
}

// Signals returns the ledger in insertion order, filtered by symbol when
// one is given. The returned slice is a copy.
func (l *Ledger) Signals(symbol string) []*domain.TradingSignal {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.TradingSignal, 0, len(l.signals))
	for _, s := range l.signals {
		if symbol == "" || s.Symbol == symbol {
			out = append(out, s)
		}
	}
	return out
}

// Len reports the current ledger size.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.signals)
}

// prune drops entries older than maxAge, oldest first. The maxEntries
// clamp runs after a successful append, so a rejected submission never
// evicts anything by size. Caller holds the mutex.
func (l *Ledger) prune(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	keepFrom := 0
	for keepFrom < len(l.signals) && l.signals[keepFrom].CreatedAt.Before(cutoff) {
		keepFrom++
	}
	if keepFrom > 0 {
		l.signals = append([]*domain.TradingSignal(nil), l.signals[keepFrom:]...)
	}
}
