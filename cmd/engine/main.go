// Command engine runs the market-making / cross-venue arbitrage core as a
// single process: it loads configuration, wires every component built in
// internal/*, and serves a Prometheus /metrics endpoint alongside the
// event loop until an interrupt signal arrives. Grounded on the teacher's
// cmd/server/main.go (flag parsing, background HTTP server goroutine,
// signal.Notify-driven graceful shutdown), generalized from its
// service-registry/HTTP-handler shape to this engine's fixed component
// graph: there is no plugin registry here, since spec.md names an exact
// set of components rather than a general service host.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/hftcore/internal/config"
	"github.com/abdoElHodaky/hftcore/internal/ledger"
	"github.com/abdoElHodaky/hftcore/internal/loop"
	"github.com/abdoElHodaky/hftcore/internal/market"
	"github.com/abdoElHodaky/hftcore/internal/monitor"
	"github.com/abdoElHodaky/hftcore/internal/ratelimit"
	"github.com/abdoElHodaky/hftcore/internal/risk"
	"github.com/abdoElHodaky/hftcore/internal/strategy"
	"github.com/abdoElHodaky/hftcore/internal/value"
	"github.com/abdoElHodaky/hftcore/internal/venue"
	"github.com/abdoElHodaky/hftcore/internal/venue/fixture"
)

const (
	appName    = "hftcore"
	appVersion = "v0.1.0"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the configuration directory (defaults to ./, ./config, /etc/hftcore)")
		version    = flag.Bool("version", false, "Show version information")
		symbolFlag = flag.String("symbol", "BTCUSDT", "Symbol to quote and scan for arbitrage")
		venuesFlag = flag.String("venues", "BINANCE", "Comma-separated venue ids; the engine wires a fixture adapter per venue since real venue integrations are out of scope")
	)
	flag.Parse()

	if *version {
		fmt.Printf("%s %s\n", appName, appVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config.OptimizeGC(cfg.Runtime.GC, logger)

	if err := run(cfg, logger, *symbolFlag, *venuesFlag); err != nil {
		logger.Fatal("engine exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, symbolFlag, venuesFlag string) error {
	symbol, err := value.NewSymbol(symbolFlag)
	if err != nil {
		return fmt.Errorf("symbol: %w", err)
	}
	venueIDs, err := parseVenues(venuesFlag)
	if err != nil {
		return err
	}

	led := ledger.New()
	adapters := make(map[value.VenueId]venue.Adapter, len(venueIDs))
	for _, v := range venueIDs {
		adapters[v] = fixture.New(v)
		led.SeedBalance(v, symbol.QuoteAsset(), value.MustSize("1000000"))
		led.SeedBalance(v, symbol.BaseAsset(), value.MustSize("1000"))
	}

	killSwitch := &atomic.Bool{}
	killSwitch.Store(cfg.KillSwitch.Enabled)

	gate := risk.New(led, buildRiskRules(cfg, killSwitch)...)
	limiters := ratelimit.NewRegistry(cfg.PerVenue.RateLimit.RPS, cfg.PerVenue.RateLimit.Burst)
	mon := monitor.New(prometheus.DefaultRegisterer)
	state := market.New()
	engine := strategy.New()

	for _, v := range venueIDs {
		mmCfg := buildMMConfig(cfg, symbol, v)
		mm := strategy.NewMarketMakingStrategy(mmCfg, led)
		engine.Register("mm-"+v.String(), mm, market.Key{Venue: v, Symbol: symbol})
	}
	if len(venueIDs) > 1 {
		arbCfg := buildArbConfig(cfg, symbol, venueIDs)
		arb := strategy.NewCrossVenueArbitrageStrategy(arbCfg, state, mon)
		keys := make([]market.Key, len(venueIDs))
		for i, v := range venueIDs {
			keys[i] = market.Key{Venue: v, Symbol: symbol}
		}
		engine.Register("arb", arb, keys...)
	}

	l, err := loop.New(state, engine, led, gate, limiters, mon, adapters, logger, loop.Config{
		GraceShutdown: cfg.GraceShutdown(),
	})
	if err != nil {
		return fmt.Errorf("build loop: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	marketEvents, execReports := fanInAdapters(ctx, adapters, symbol, logger)
	control := make(chan loop.ControlEvent)

	metricsServer := startMetricsServer(cfg.Monitoring.MetricsAddr, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	logger.Info("engine starting",
		zap.String("symbol", symbol.String()),
		zap.Strings("venues", venueNames(venueIDs)),
		zap.String("metrics_addr", cfg.Monitoring.MetricsAddr))

	return l.Run(ctx, marketEvents, execReports, control)
}

func buildRiskRules(cfg *config.Config, killSwitch *atomic.Bool) []risk.Rule {
	rules := []risk.Rule{
		risk.KillSwitch{Active: killSwitch.Load},
		risk.MaxOrderSize{Limit: value.MustSize(cfg.Risk.MaxOrderSize)},
		risk.MaxOrderValue{Limit: value.MustSize(cfg.Risk.MaxOrderValue)},
		risk.MaxPosition{Limit: value.MustSize(cfg.Risk.MaxPosition)},
		risk.NewRateOfChange(
			decimal.NewFromFloat(cfg.Risk.RateOfChangeBps),
			time.Duration(cfg.Risk.RateOfChangeWindowMs)*time.Millisecond,
		),
	}
	if cfg.Risk.DailyLossLimit != "" {
		rules = append(rules, risk.DailyLoss{Limit: value.MustSize(cfg.Risk.DailyLossLimit)})
	}
	return rules
}

func buildMMConfig(cfg *config.Config, symbol value.Symbol, v value.VenueId) strategy.MMConfig {
	return strategy.MMConfig{
		Symbol:               symbol,
		Venue:                v,
		SpreadBps:            decimal.NewFromFloat(cfg.Strategy.MM.SpreadBps),
		MinSpreadBps:         decimal.NewFromFloat(cfg.Strategy.MM.MinSpreadBps),
		MaxSpreadBps:         decimal.NewFromFloat(cfg.Strategy.MM.MaxSpreadBps),
		OrderSize:            value.MustSize(cfg.Strategy.MM.OrderSize),
		MaxPosition:          value.MustSize(cfg.Strategy.MM.MaxPosition),
		TargetInventoryRatio: decimal.NewFromFloat(cfg.Strategy.MM.TargetInventoryRatio),
		SkewCoeff:            decimal.NewFromFloat(cfg.Strategy.MM.SkewCoeff),
		Levels:               cfg.Strategy.MM.Levels,
		TickSize:             value.MustPrice(cfg.Strategy.MM.TickSize),
		PriceTolerance:       value.MustPrice(cfg.Strategy.MM.TickSize),
		Cooldown:             cfg.CooldownDuration(),
	}
}

func buildArbConfig(cfg *config.Config, symbol value.Symbol, venues []value.VenueId) strategy.ArbConfig {
	return strategy.ArbConfig{
		Symbol:           symbol,
		Venues:           venues,
		MinProfitBps:     decimal.NewFromFloat(cfg.Strategy.Arb.MinProfitBps),
		OrderSize:        value.MustSize(cfg.Strategy.Arb.OrderSize),
		MaxPosition:      value.MustSize(cfg.Strategy.Arb.MaxPosition),
		ExecutionTimeout: time.Duration(cfg.Strategy.Arb.ExecutionTimeoutMs) * time.Millisecond,
		MaxBookAge:       time.Duration(cfg.Strategy.Arb.MaxBookAgeMs) * time.Millisecond,
		Cooldown:         cfg.CooldownDuration(),
	}
}

func parseVenues(raw string) ([]value.VenueId, error) {
	var ids []value.VenueId
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				v, err := value.NewVenueId(raw[start:i])
				if err != nil {
					return nil, fmt.Errorf("venues: %w", err)
				}
				ids = append(ids, v)
			}
			start = i + 1
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("venues: at least one venue is required")
	}
	return ids, nil
}

func venueNames(ids []value.VenueId) []string {
	names := make([]string, len(ids))
	for i, v := range ids {
		names[i] = v.String()
	}
	return names
}

// fanInAdapters merges every adapter's market data and execution streams
// into the two channels the loop consumes, since loop.Run takes a single
// pair of channels but the engine may run one fixture adapter per venue.
func fanInAdapters(
	ctx context.Context,
	adapters map[value.VenueId]venue.Adapter,
	symbol value.Symbol,
	logger *zap.Logger,
) (<-chan market.MarketEvent, <-chan value.ExecutionReport) {
	marketEvents := make(chan market.MarketEvent, 256)
	execReports := make(chan value.ExecutionReport, 256)

	for id, a := range adapters {
		events, err := a.Events(ctx, []value.Symbol{symbol})
		if err != nil {
			logger.Error("subscribe market data failed", zap.String("venue", id.String()), zap.Error(err))
			continue
		}
		executions, err := a.Executions(ctx)
		if err != nil {
			logger.Error("subscribe execution reports failed", zap.String("venue", id.String()), zap.Error(err))
			continue
		}

		go func() {
			for evt := range events {
				select {
				case marketEvents <- evt:
				case <-ctx.Done():
					return
				}
			}
		}()
		go func() {
			for rep := range executions {
				select {
				case execReports <- rep:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return marketEvents, execReports
}

func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return server
}
