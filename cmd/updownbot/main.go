package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/updownbot/config"
	"github.com/alejandrodnm/updownbot/internal/adapters/audit"
	"github.com/alejandrodnm/updownbot/internal/adapters/notify"
	"github.com/alejandrodnm/updownbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/updownbot/internal/adapters/upload"
	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/driver"
	"github.com/alejandrodnm/updownbot/internal/feed"
	"github.com/alejandrodnm/updownbot/internal/ledger"
	"github.com/alejandrodnm/updownbot/internal/metrics"
	"github.com/alejandrodnm/updownbot/internal/settle"
	"github.com/alejandrodnm/updownbot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "threshold", "strategy mode: threshold|spread")
	symbol := flag.String("symbol", "", "trade only this symbol (e.g. BTC); default: all configured")
	preferPoll := flag.Bool("prefer-poll", false, "disable the websocket feed, REST polling only")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	report := flag.Bool("report", false, "print the audit summary and exit")
	flag.Parse()

	cfg := loadConfig(*configPath)

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	strategyMode, err := parseMode(*mode)
	if err != nil {
		slog.Error("invalid mode", "mode", *mode)
		os.Exit(1)
	}
	onlySymbol := strings.ToUpper(strings.TrimSpace(*symbol))
	if onlySymbol != "" && !containsSymbol(cfg.Strategy.Symbols, onlySymbol) {
		slog.Error("unknown symbol", "symbol", onlySymbol, "configured", cfg.Strategy.Symbols)
		os.Exit(1)
	}

	auditLog, err := audit.NewSQLiteAudit(cfg.Persistence.AuditDSN)
	if err != nil {
		slog.Error("failed to open audit db", "err", err, "dsn", cfg.Persistence.AuditDSN)
		os.Exit(1)
	}
	defer auditLog.Close()

	console := notify.NewConsole()

	led := ledger.New(cfg.Persistence.StatePath, cfg.Strategy.Symbols, cfg.Strategy.StartingBalanceUSD)
	led.Load()

	if *report {
		printSummary(context.Background(), auditLog, console, led)
		return
	}

	slog.Info("updownbot starting",
		"config", *configPath,
		"mode", strategyMode,
		"symbol", symbolOrAll(onlySymbol),
		"prefer_stream", cfg.Feed.PreferStream && !*preferPoll,
		"state", cfg.Persistence.StatePath,
		"audit", cfg.Persistence.AuditDSN,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.ListenAddr != "" {
		metrics.StartAsync(ctx, cfg.Metrics.ListenAddr)
	}

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
	streamer := polymarket.NewWSStreamer(cfg.API.CLOBBase)

	store := feed.NewStore()
	marketFeed := feed.New(feed.Config{
		PreferStream:   cfg.Feed.PreferStream && !*preferPoll,
		PollInterval:   cfg.PollInterval(),
		ReconnectDelay: cfg.ReconnectDelay(),
	}, store, client, streamer)

	engine := strategy.New(strategy.Config{
		Mode:            strategyMode,
		BuyChunkUSD:     cfg.Strategy.BuyChunkUSD,
		MaxSideSpendUSD: cfg.Strategy.MaxSideSpendUSD,
		RequireFreeCash: cfg.Strategy.RequireFreeCash,
		EntryThreshold:  cfg.EntryThreshold(),
		DCAStep:         cfg.DCAStep(),
		DCALevels:       cfg.Strategy.DCALevels,
		SumCap:          cfg.Strategy.SumCapDollars,
		ExpensiveMin:    cfg.Strategy.ExpensiveMin,
		CheapMax:        cfg.Strategy.CheapMax,
		SpreadSumCap:    cfg.Strategy.SpreadSumCap,
	}, led, fillSink{audit: auditLog, console: console})

	resolver := settle.New(settle.Config{
		SignalBid: cfg.Settlement.SignalBid,
		MaxWait:   cfg.SettleMaxWait(),
		Poll:      cfg.SettlePoll(),
	})

	prefixes := make(map[string]string, len(cfg.Strategy.Symbols))
	for _, sym := range cfg.Strategy.Symbols {
		prefixes[sym] = config.SlugPrefix(sym)
	}

	d := driver.New(driver.Config{
		Symbols:          cfg.Strategy.Symbols,
		SlugPrefixes:     prefixes,
		OnlySymbol:       onlySymbol,
		LookbackLimit:    cfg.Strategy.LookbackLimit,
		Tick:             cfg.Tick(),
		DiscoveryRefresh: cfg.DiscoveryRefresh(),
		SettleGrace:      cfg.SettleGrace(),
		SaveEvery:        cfg.SaveEvery(),
		Artifacts:        []string{led.StatePath(), auditLog.Path()},
	}, client, marketFeed, store, engine, resolver, led, auditLog, console, upload.NewFromEnv())

	if err := d.Run(ctx); err != nil {
		slog.Error("driver exited with error", "err", err)
		os.Exit(1)
	}

	printSummary(context.Background(), auditLog, console, led)
	slog.Info("updownbot stopped cleanly")
}

// loadConfig falls back to defaults when the default config file is absent,
// but fails loudly for an explicit path that cannot be read.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	if errors.Is(err, os.ErrNotExist) && path == "config/config.yaml" {
		slog.Info("no config file, using defaults")
		return config.Default()
	}
	slog.Error("failed to load config", "err", err, "path", path)
	os.Exit(1)
	return nil
}

func printSummary(ctx context.Context, auditLog *audit.SQLiteAudit, console *notify.Console, led *ledger.Ledger) {
	stats, err := auditLog.RunStats(ctx)
	if err != nil {
		slog.Warn("could not generate run summary", "err", err)
		return
	}
	console.PrintRunSummary(stats, led.Accounts())
}

// fillSink fans each fill out to the console and the audit trail.
type fillSink struct {
	audit   *audit.SQLiteAudit
	console *notify.Console
}

func (s fillSink) RecordFill(ctx context.Context, f domain.Fill) error {
	s.console.PrintFill(f)
	return s.audit.RecordFill(ctx, f)
}

var errUnknownMode = errors.New("unknown strategy mode")

func parseMode(s string) (strategy.Mode, error) {
	switch s {
	case "threshold":
		return strategy.ModeThreshold, nil
	case "spread":
		return strategy.ModeSpread, nil
	}
	return "", errUnknownMode
}

func containsSymbol(symbols []string, sym string) bool {
	for _, s := range symbols {
		if s == sym {
			return true
		}
	}
	return false
}

func symbolOrAll(s string) string {
	if s == "" {
		return "ALL"
	}
	return s
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
