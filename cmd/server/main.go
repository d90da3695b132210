package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/5ys-5y5/getEvents/internal/analyst"
	"github.com/5ys-5y5/getEvents/internal/events"
	"github.com/5ys-5y5/getEvents/internal/fmp"
	"github.com/5ys-5y5/getEvents/internal/jobs"
	"github.com/5ys-5y5/getEvents/internal/logger"
	"github.com/5ys-5y5/getEvents/internal/market"
	"github.com/5ys-5y5/getEvents/internal/scheduler"
	"github.com/5ys-5y5/getEvents/internal/server"
	"github.com/5ys-5y5/getEvents/internal/store"
	"github.com/5ys-5y5/getEvents/internal/tracker"
	"github.com/5ys-5y5/getEvents/internal/valuation"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := store.LoadConfig(configPath)
	must(err)

	must(logger.Init())
	ctx := context.Background()
	defer func() {
		if err := logger.Shutdown(context.Background()); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	client := fmp.NewClient(
		cfg.FMP.BaseURL,
		os.Getenv(cfg.FMP.APIKeyEnv),
		cfg.FMP.RequestsPerMin,
		cfg.FMP.MaxRetries,
		time.Duration(cfg.FMP.TimeoutSeconds)*time.Second,
	)

	files := store.NewFileStore(cfg.Data.Dir)
	symbols := store.NewSymbolCache(files, client, cfg.Symbols.Exchanges, cfg.Symbols.FieldMap, cfg.Symbols.ExpiryDays)
	analystStore := store.NewAnalystStore(files)
	tradeStore := store.NewTradeStore(files)

	sourceConfigs := make([]events.SourceConfig, 0, len(cfg.EventSources))
	for _, src := range cfg.EventSources {
		sourceConfigs = append(sourceConfigs, events.SourceConfig{
			Name:     src.Name,
			Path:     src.Path,
			FieldMap: src.FieldMap,
		})
	}

	refresher := analyst.NewRefresher(client,
		cfg.Analyst.BatchSize,
		cfg.Analyst.BatchDelayMs,
		cfg.Analyst.FetchDelayMs,
		cfg.Analyst.MaxErrors,
	)

	deps := server.Deps{
		Config:       cfg,
		Client:       client,
		Symbols:      symbols,
		EventCache:   store.NewEventCache(files),
		AnalystStore: analystStore,
		TradeStore:   tradeStore,
		Collector:    events.NewCollector(client, sourceConfigs),
		Calculator:   valuation.NewCalculator(client),
		Prices:       market.NewPriceService(client),
		Refresher:    refresher,
		Tracker:      tracker.NewService(client, symbols, cfg.Tracker.MaxCapPct, cfg.Tracker.LowCapPct),
	}

	if err := symbols.Ensure(ctx); err != nil {
		logger.Warn(ctx, "Symbol universe not available at startup", "error", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler.Timezone)
		must(err)
		must(sched.AddJob(cfg.Scheduler.Cron, jobs.NewAnalystRefresh(symbols, analystStore, refresher)))
		sched.Start()
	}

	srv := server.New(deps)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		logger.Info(ctx, "Shutting down", "signal", sig.String())
	case err := <-errc:
		if err != nil {
			logger.Error(ctx, "HTTP server failed", "error", err)
		}
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Forced shutdown", "error", err)
	}
}
