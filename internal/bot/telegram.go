package bot

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"tradewinds/internal/domain"
	"tradewinds/internal/pipeline"
	"tradewinds/internal/service"
	"tradewinds/internal/ta"

	tele "gopkg.in/telebot.v3"
)

// Notifier is the outbound half of the bot: the scanner job pushes
// accepted signals through it without depending on telebot directly.
type Notifier interface {
	NotifySignal(signal *domain.TradingSignal)
}

// TelegramBot serves the command interface and broadcasts accepted
// signals to a configured chat.
type TelegramBot struct {
	bot        *tele.Bot
	marketData *service.MarketData
	pipeline   *pipeline.Pipeline
	chatID     int64
}

// StartTelegramBot wires the Telegram command interface. Returns nil
// when TELEGRAM_BOT_TOKEN is unset so the rest of the service runs
// without a bot.
func StartTelegramBot(marketData *service.MarketData, pipe *pipeline.Pipeline, chatID int64) *TelegramBot {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	tb := &TelegramBot{bot: b, marketData: marketData, pipeline: pipe, chatID: chatID}
	tb.registerHandlers()

	log.Println("Telegram bot started")
	go b.Start()
	return tb
}

func (tb *TelegramBot) registerHandlers() {
	tb.bot.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	tb.bot.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.BinancePair[symbol]; !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		snapshot, err := tb.marketData.GetTicker(context.Background(), symbol, domain.DefaultExchange)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		msg := fmt.Sprintf(
			"%s\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
			symbol, snapshot.PriceUSD, snapshot.Change24hPct, snapshot.Volume24h,
		)
		return c.Send(msg)
	})

	tb.bot.Handle("/signal", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /signal BTC [SC01|SC02|SC03]\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.BinancePair[symbol]; !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		strategy := domain.StrategyMACD
		if len(args) > 1 {
			strategy = strings.ToUpper(args[1])
		}
		signal, rejection, err := tb.pipeline.Generate(context.Background(), symbol, strategy, 0, "")
		switch {
		case err != nil:
			return c.Send(fmt.Sprintf("Error generating signal for %s: %v", symbol, err))
		case rejection != nil:
			return c.Send(fmt.Sprintf("Declined (%s): an equivalent %s signal already exists", rejection.Tier, symbol))
		default:
			return c.Send(formatSignal(signal))
		}
	})

	tb.bot.Handle("/analyze", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /analyze BTC [ema|rsi|macd|dual]")
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.BinancePair[symbol]; !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		name := ta.NameRSI
		if len(args) > 1 {
			name = strings.ToLower(args[1])
		}
		ind, err := ta.New(name, ta.Params{})
		if err != nil {
			return c.Send(fmt.Sprintf("Unknown indicator: %s", name))
		}
		bars, err := tb.marketData.GetBars(context.Background(), symbol, "1h", 100, domain.DefaultExchange)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching bars for %s: %v", symbol, err))
		}
		closes := domain.Closes(bars)
		values, err := ind.Calculate(closes)
		if err != nil {
			return c.Send(fmt.Sprintf("Error analyzing %s: %v", symbol, err))
		}
		actions, err := ind.Actions(closes)
		if err != nil {
			return c.Send(fmt.Sprintf("Error analyzing %s: %v", symbol, err))
		}
		for i := len(values) - 1; i >= 0; i-- {
			if !math.IsNaN(values[i]) {
				return c.Send(fmt.Sprintf("%s %s (1h)\nValue: %.4f\nAction: %s", symbol, ind.Name(), values[i], actions[i]))
			}
		}
		return c.Send(fmt.Sprintf("%s %s: no defined samples yet", symbol, ind.Name()))
	})

	tb.bot.Handle("/signals", func(c tele.Context) error {
		symbol := ""
		if args := c.Args(); len(args) > 0 {
			symbol = strings.ToUpper(args[0])
		}
		signals := tb.pipeline.Signals(symbol)
		if len(signals) == 0 {
			return c.Send("No signals yet")
		}
		var sb strings.Builder
		for _, s := range signals {
			fmt.Fprintf(&sb, "%s %s entry %.4f tp %.4f sl %.4f (%s)\n",
				s.Symbol, s.StrategyCode, s.EntryPrice, s.TPPrice, s.SLPrice, s.Status)
		}
		return c.Send(sb.String())
	})
}

// NotifySignal pushes an accepted signal to the configured chat. A zero
// chat ID disables broadcasting.
func (tb *TelegramBot) NotifySignal(signal *domain.TradingSignal) {
	if tb == nil || tb.chatID == 0 {
		return
	}
	if _, err := tb.bot.Send(tele.ChatID(tb.chatID), formatSignal(signal)); err != nil {
		log.Printf("failed to send signal notification: %v", err)
	}
}

func formatSignal(s *domain.TradingSignal) string {
	urgency := ""
	if s.Imminent {
		urgency = "\nEntry is imminent"
	}
	return fmt.Sprintf(
		"%s signal for %s\nEntry: %.4f\nTake profit: %.4f\nStop loss: %.4f\nRisk: %.2f%%\nStatus: %s%s",
		s.StrategyCode, s.Symbol, s.EntryPrice, s.TPPrice, s.SLPrice, s.RiskPct, s.Status, urgency,
	)
}
