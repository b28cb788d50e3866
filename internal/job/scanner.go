package job

import (
	"context"
	"errors"
	"log"
	"time"

	"tradewinds/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// SignalGenerator is the pipeline surface the scanner drives.
type SignalGenerator interface {
	Generate(ctx context.Context, symbol, strategyCode string, riskReward float64, exchange string) (*domain.TradingSignal, *domain.Rejection, error)
}

// TickerRefresher is implemented by the market data service. The scanner
// uses it to keep ticker snapshots warm between scans.
type TickerRefresher interface {
	GetTicker(ctx context.Context, symbol, exchange string) (*domain.PriceSnapshot, error)
}

// SignalNotifier receives signals the ledger accepted.
type SignalNotifier interface {
	NotifySignal(signal *domain.TradingSignal)
}

// Scanner runs background goroutines that sweep every symbol and
// strategy through the signal pipeline on a fixed cadence.
type Scanner struct {
	tracer       trace.Tracer
	generator    SignalGenerator
	tickers      TickerRefresher
	notifier     SignalNotifier
	scanInterval time.Duration
	strategies   []string
}

func NewScanner(tracer trace.Tracer, generator SignalGenerator, tickers TickerRefresher, notifier SignalNotifier, scanIntervalSecs int) *Scanner {
	return &Scanner{
		tracer:       tracer,
		generator:    generator,
		tickers:      tickers,
		notifier:     notifier,
		scanInterval: time.Duration(scanIntervalSecs) * time.Second,
		strategies:   domain.SupportedStrategies,
	}
}

// Start launches the scan and ticker-refresh goroutines. Blocks until
// ctx is cancelled.
func (s *Scanner) Start(ctx context.Context) {
	log.Println("Signal scanner starting...")

	go s.scanLoop(ctx)
	go s.tickerLoop(ctx)

	<-ctx.Done()
	log.Println("Signal scanner stopped")
}

func (s *Scanner) scanLoop(ctx context.Context) {
	s.scanAll(ctx)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanAll(ctx)
		}
	}
}

// scanAll sweeps the full symbol and strategy grid once. Rejections are
// the common case and stay quiet; only real failures are logged.
func (s *Scanner) scanAll(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "job.scan-all")
	defer span.End()

	for _, symbol := range domain.SupportedSymbols {
		for _, strategy := range s.strategies {
			if ctx.Err() != nil {
				return
			}
			signal, rejection, err := s.generator.Generate(ctx, symbol, strategy, 0, "")
			switch {
			case errors.Is(err, domain.ErrDataUnavailable), errors.Is(err, domain.ErrInsufficientData):
				log.Printf("scan skipped %s/%s: %v", symbol, strategy, err)
			case err != nil:
				log.Printf("scan error for %s/%s: %v", symbol, strategy, err)
			case rejection != nil:
				// duplicate of a live signal, nothing to do
			default:
				log.Printf("scan emitted %s signal for %s at %.4f", strategy, symbol, signal.EntryPrice)
				if s.notifier != nil {
					s.notifier.NotifySignal(signal)
				}
			}
		}
	}
}

func (s *Scanner) tickerLoop(ctx context.Context) {
	// Stagger behind the first scan so both do not hit providers at once
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.refreshTickers(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshTickers(ctx)
		}
	}
}

func (s *Scanner) refreshTickers(ctx context.Context) {
	for _, symbol := range domain.SupportedSymbols {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.tickers.GetTicker(ctx, symbol, domain.DefaultExchange); err != nil {
			log.Printf("ticker refresh error for %s: %v", symbol, err)
		}
	}
}
