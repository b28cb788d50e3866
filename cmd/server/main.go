package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradewinds/internal/bot"
	"tradewinds/internal/cache"
	"tradewinds/internal/config"
	"tradewinds/internal/db"
	"tradewinds/internal/handler"
	"tradewinds/internal/job"
	"tradewinds/internal/ledger"
	"tradewinds/internal/levels"
	"tradewinds/internal/pipeline"
	"tradewinds/internal/pricecache"
	"tradewinds/internal/provider"
	"tradewinds/internal/repository"
	"tradewinds/internal/service"
	"tradewinds/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "tradewinds/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newBarRepoFunc   = repository.NewBarRepository
	newRegistryFunc  = func(tracer trace.Tracer) *provider.Registry {
		reg := provider.NewRegistry()
		reg.Register("binance", provider.NewBinanceProvider(tracer))
		return reg
	}
	newMarketDataFunc      = service.NewMarketData
	newScannerFunc         = job.NewScanner
	startScannerFunc       = func(s *job.Scanner, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Tradewinds API
// @version         1.0
// @description     Technical-indicator signal service with ATR-based trade levels.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repository and run migrations
	var store service.BarStore
	if db.Pool != nil {
		barRepo := newBarRepoFunc(db.Pool, tracer)
		if err := barRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = barRepo
	}

	// Exchange providers and the market data service
	registry := newRegistryFunc(tracer)
	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}
	marketData := newMarketDataFunc(tracer, registry, store, redisClient)

	// Signal pipeline: memoized prices, levels math, dedup ledger
	prices := pricecache.New(marketData, time.Duration(cfg.PriceCacheTTLSecs)*time.Second)
	calc := levels.NewCalculator(cfg.ATRPeriod, cfg.SLMultiplier, cfg.RiskRewardRatio, cfg.ImminentPct)
	led := ledger.New(ledger.Options{
		NearPct:       cfg.NearDuplicatePct,
		RecencyWindow: time.Duration(cfg.RecencyWindowSecs) * time.Second,
		MaxAge:        time.Duration(cfg.LedgerMaxAgeHours) * time.Hour,
		MaxEntries:    cfg.LedgerMaxEntries,
	})
	pipe := pipeline.New(tracer, prices, marketData, calc, led, pipeline.Options{
		FetchTimeout: time.Duration(cfg.FetchTimeoutSecs) * time.Second,
		Interval:     cfg.CandleInterval,
		BarLimit:     cfg.CandleLimit,
	})

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	tgBot := startTelegramBotFunc(marketData, pipe, cfg.TelegramChatID)

	// Start background scanner (stopped by ctx cancel)
	var notifier job.SignalNotifier
	if tgBot != nil {
		notifier = tgBot
	}
	scanner := newScannerFunc(tracer, pipe, marketData, notifier, cfg.ScanIntervalSecs)
	startScannerFunc(scanner, ctx)

	// Create handlers and routes
	h := newHandlerFunc(tracer, marketData, pipe)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("tradewinds"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
