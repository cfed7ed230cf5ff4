package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"BTC", "ETH", "SOL", "XRP"}, cfg.Strategy.Symbols)
	assert.Equal(t, 1.0, cfg.Strategy.BuyChunkUSD)
	assert.Equal(t, 4.0, cfg.Strategy.MaxSideSpendUSD)
	assert.Equal(t, 3, cfg.Strategy.DCALevels)
	assert.Equal(t, 100.0, cfg.Strategy.StartingBalanceUSD)

	assert.InDelta(t, 0.35, cfg.EntryThreshold(), 1e-9)
	assert.InDelta(t, 0.05, cfg.DCAStep(), 1e-9)

	assert.Equal(t, 200*time.Millisecond, cfg.Tick())
	assert.Equal(t, 10*time.Second, cfg.DiscoveryRefresh())
	assert.Equal(t, 700*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.SettleGrace())
	assert.Equal(t, 180*time.Second, cfg.SettleMaxWait())
	assert.Equal(t, 500*time.Millisecond, cfg.SettlePoll())
	assert.Equal(t, 3*time.Second, cfg.SaveEvery())

	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.API.GammaBase)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
strategy:
  symbols: ["BTC"]
  buy_chunk_usd: 2.5
  entry_ask_cents: 40
settlement:
  max_wait_sec: 60
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// explicit values win
	assert.Equal(t, []string{"BTC"}, cfg.Strategy.Symbols)
	assert.Equal(t, 2.5, cfg.Strategy.BuyChunkUSD)
	assert.InDelta(t, 0.40, cfg.EntryThreshold(), 1e-9)
	assert.Equal(t, 60*time.Second, cfg.SettleMaxWait())
	assert.Equal(t, "debug", cfg.Log.Level)

	// everything else falls back to defaults
	assert.Equal(t, 4.0, cfg.Strategy.MaxSideSpendUSD)
	assert.Equal(t, 500*time.Millisecond, cfg.SettlePoll())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("STATE_PATH", "/tmp/other_state.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/other_state.json", cfg.Persistence.StatePath)
}

func TestSlugPrefix(t *testing.T) {
	assert.Equal(t, "btc-updown-15m-", SlugPrefix("BTC"))
	assert.Equal(t, "eth-updown-15m-", SlugPrefix("eth"))
}
