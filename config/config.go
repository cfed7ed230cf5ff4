package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration.
type Config struct {
	Strategy    StrategyConfig    `yaml:"strategy"`
	Feed        FeedConfig        `yaml:"feed"`
	Settlement  SettlementConfig  `yaml:"settlement"`
	Persistence PersistenceConfig `yaml:"persistence"`
	API         APIConfig         `yaml:"api"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

// StrategyConfig controls entry, DCA ladder, hedging and spread capture.
type StrategyConfig struct {
	Symbols             []string `yaml:"symbols"`
	DiscoveryRefreshSec float64  `yaml:"discovery_refresh_sec"`
	LookbackLimit       int      `yaml:"lookback_limit"`

	BuyChunkUSD     float64 `yaml:"buy_chunk_usd"`
	MaxSideSpendUSD float64 `yaml:"max_side_spend_usd"`
	RequireFreeCash float64 `yaml:"require_free_cash"` // reserve kept out of every buy

	EntryAskCents  float64 `yaml:"entry_ask_cents"`
	DCAStepCents   float64 `yaml:"dca_step_cents"`
	DCALevels      int     `yaml:"dca_levels"`
	SumCapDollars  float64 `yaml:"sum_cap_dollars"` // combined-price cap for hedging

	ExpensiveMin float64 `yaml:"expensive_min"`
	CheapMax     float64 `yaml:"cheap_max"`
	SpreadSumCap float64 `yaml:"spread_sum_cap"`

	StartingBalanceUSD float64 `yaml:"starting_balance_usd"`
	TickMs             int     `yaml:"tick_ms"`
}

// FeedConfig controls the order book acquisition paths.
type FeedConfig struct {
	PreferStream      bool    `yaml:"prefer_stream"`
	PollIntervalMs    int     `yaml:"poll_interval_ms"`
	ReconnectDelaySec float64 `yaml:"reconnect_delay_sec"`
}

// SettlementConfig controls winner resolution after market end.
type SettlementConfig struct {
	GraceSec   float64 `yaml:"grace_sec"`
	SignalBid  float64 `yaml:"signal_bid"`   // best bid at/above this decides the winner
	MaxWaitSec float64 `yaml:"max_wait_sec"` // forced decision after this
	PollMs     int     `yaml:"poll_ms"`
}

// PersistenceConfig controls the state snapshot and audit log.
type PersistenceConfig struct {
	StatePath    string  `yaml:"state_path"`
	AuditDSN     string  `yaml:"audit_dsn"` // SQLite path, or ":memory:"
	SaveEverySec float64 `yaml:"save_every_sec"`
}

// APIConfig holds the Polymarket base URLs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// MetricsConfig controls the optional expvar/pprof debug server.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"` // empty = disabled
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present.
// Environment variables override matching YAML keys.
func Load(path string) (*Config, error) {
	// .env is optional; ignore the error when missing
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// SlugPrefix returns the updown market slug prefix for a symbol,
// e.g. "btc-updown-15m-" for BTC.
func SlugPrefix(symbol string) string {
	return strings.ToLower(symbol) + "-updown-15m-"
}

// DiscoveryRefresh returns the discovery interval as a time.Duration.
func (c *Config) DiscoveryRefresh() time.Duration {
	return time.Duration(c.Strategy.DiscoveryRefreshSec * float64(time.Second))
}

// Tick returns the driver tick as a time.Duration.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Strategy.TickMs) * time.Millisecond
}

// PollInterval returns the REST poll interval as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalMs) * time.Millisecond
}

// ReconnectDelay returns the stream reconnect back-off as a time.Duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Feed.ReconnectDelaySec * float64(time.Second))
}

// SettleGrace returns the post-end grace period as a time.Duration.
func (c *Config) SettleGrace() time.Duration {
	return time.Duration(c.Settlement.GraceSec * float64(time.Second))
}

// SettleMaxWait returns the settlement wait bound as a time.Duration.
func (c *Config) SettleMaxWait() time.Duration {
	return time.Duration(c.Settlement.MaxWaitSec * float64(time.Second))
}

// SettlePoll returns the settlement poll interval as a time.Duration.
func (c *Config) SettlePoll() time.Duration {
	return time.Duration(c.Settlement.PollMs) * time.Millisecond
}

// SaveEvery returns the state snapshot interval as a time.Duration.
func (c *Config) SaveEvery() time.Duration {
	return time.Duration(c.Persistence.SaveEverySec * float64(time.Second))
}

// EntryThreshold returns the entry ask threshold in dollars.
func (c *Config) EntryThreshold() float64 {
	return c.Strategy.EntryAskCents / 100
}

// DCAStep returns the DCA ladder step in dollars.
func (c *Config) DCAStep() float64 {
	return c.Strategy.DCAStepCents / 100
}

// applyEnvOverrides overrides values from environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.Persistence.StatePath = v
	}
	if v := os.Getenv("AUDIT_DSN"); v != "" {
		cfg.Persistence.AuditDSN = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
}

// setDefaults fills every zero field with the production default.
func setDefaults(cfg *Config) {
	if len(cfg.Strategy.Symbols) == 0 {
		cfg.Strategy.Symbols = []string{"BTC", "ETH", "SOL", "XRP"}
	}
	if cfg.Strategy.DiscoveryRefreshSec <= 0 {
		cfg.Strategy.DiscoveryRefreshSec = 10
	}
	if cfg.Strategy.LookbackLimit <= 0 {
		cfg.Strategy.LookbackLimit = 250
	}
	if cfg.Strategy.BuyChunkUSD <= 0 {
		cfg.Strategy.BuyChunkUSD = 1
	}
	if cfg.Strategy.MaxSideSpendUSD <= 0 {
		cfg.Strategy.MaxSideSpendUSD = 4
	}
	if cfg.Strategy.RequireFreeCash <= 0 {
		cfg.Strategy.RequireFreeCash = 0.05
	}
	if cfg.Strategy.EntryAskCents <= 0 {
		cfg.Strategy.EntryAskCents = 35
	}
	if cfg.Strategy.DCAStepCents <= 0 {
		cfg.Strategy.DCAStepCents = 5
	}
	if cfg.Strategy.DCALevels <= 0 {
		cfg.Strategy.DCALevels = 3
	}
	if cfg.Strategy.SumCapDollars <= 0 {
		cfg.Strategy.SumCapDollars = 0.99
	}
	if cfg.Strategy.ExpensiveMin <= 0 {
		cfg.Strategy.ExpensiveMin = 0.73
	}
	if cfg.Strategy.CheapMax <= 0 {
		cfg.Strategy.CheapMax = 0.22
	}
	if cfg.Strategy.SpreadSumCap <= 0 {
		cfg.Strategy.SpreadSumCap = 1.00
	}
	if cfg.Strategy.StartingBalanceUSD <= 0 {
		cfg.Strategy.StartingBalanceUSD = 100
	}
	if cfg.Strategy.TickMs <= 0 {
		cfg.Strategy.TickMs = 200
	}
	if cfg.Feed.PollIntervalMs <= 0 {
		cfg.Feed.PollIntervalMs = 700
	}
	if cfg.Feed.ReconnectDelaySec <= 0 {
		cfg.Feed.ReconnectDelaySec = 5
	}
	if cfg.Settlement.GraceSec <= 0 {
		cfg.Settlement.GraceSec = 5
	}
	if cfg.Settlement.SignalBid <= 0 {
		cfg.Settlement.SignalBid = 0.99
	}
	if cfg.Settlement.MaxWaitSec <= 0 {
		cfg.Settlement.MaxWaitSec = 180
	}
	if cfg.Settlement.PollMs <= 0 {
		cfg.Settlement.PollMs = 500
	}
	if cfg.Persistence.StatePath == "" {
		cfg.Persistence.StatePath = "paper_state.json"
	}
	if cfg.Persistence.AuditDSN == "" {
		cfg.Persistence.AuditDSN = "updownbot.db"
	}
	if cfg.Persistence.SaveEverySec <= 0 {
		cfg.Persistence.SaveEverySec = 3
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
