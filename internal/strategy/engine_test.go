package strategy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/feed"
	"github.com/alejandrodnm/updownbot/internal/ledger"
)

type fillRecorder struct {
	fills []domain.Fill
}

func (r *fillRecorder) RecordFill(_ context.Context, f domain.Fill) error {
	r.fills = append(r.fills, f)
	return nil
}

func testConfig() Config {
	return Config{
		Mode:            ModeThreshold,
		BuyChunkUSD:     1,
		MaxSideSpendUSD: 4,
		RequireFreeCash: 0.05,
		EntryThreshold:  0.35,
		DCAStep:         0.05,
		DCALevels:       3,
		SumCap:          0.99,
		ExpensiveMin:    0.73,
		CheapMax:        0.22,
		SpreadSumCap:    1.00,
	}
}

func testMarket() domain.ActiveMarket {
	return domain.ActiveMarket{
		Symbol:    "BTC",
		Slug:      "btc-updown-15m-1700000000",
		UpToken:   "tok-up",
		DownToken: "tok-dn",
	}
}

func testLedger(t *testing.T, balance float64) *ledger.Ledger {
	t.Helper()
	return ledger.New(filepath.Join(t.TempDir(), "state.json"), []string{"BTC"}, balance)
}

func deepBook(tokenID string, ask float64) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.BookEntry{{Price: ask - 0.02, Size: 1000}},
		Asks:    []domain.BookEntry{{Price: ask, Size: 1000}},
	}
}

func bindBooks(store *feed.Store, mkt domain.ActiveMarket, upAsk, downAsk float64) {
	store.Update(deepBook(mkt.UpToken, upAsk))
	store.Update(deepBook(mkt.DownToken, downAsk))
}

func TestEngine_ThresholdEntry(t *testing.T) {
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(testConfig(), led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	bindBooks(store, mkt, 0.34, 0.70)
	e.Step(context.Background(), mkt, store)

	require.Len(t, sink.fills, 1)
	assert.Equal(t, domain.SideUp, e.Primary())
	assert.Equal(t, domain.SideUp, sink.fills[0].Side)
	assert.Equal(t, "UP_entry_or_dca", sink.fills[0].Note)
	assert.InDelta(t, 1.0, sink.fills[0].USD, 1e-9)
	assert.InDelta(t, 99.0, led.FreeCash("BTC"), 1e-9)

	// same prices again: the next rung is 0.30, no new buy
	e.Step(context.Background(), mkt, store)
	assert.Len(t, sink.fills, 1)
}

func TestEngine_DCALadderDescends(t *testing.T) {
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(testConfig(), led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	bindBooks(store, mkt, 0.34, 0.70)
	e.Step(context.Background(), mkt, store)
	require.Len(t, sink.fills, 1)

	// price drops through the next rung
	bindBooks(store, mkt, 0.29, 0.70)
	e.Step(context.Background(), mkt, store)
	require.Len(t, sink.fills, 2)

	// but not below it without a further drop
	e.Step(context.Background(), mkt, store)
	assert.Len(t, sink.fills, 2)
}

func TestEngine_DCABuyCountBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSideSpendUSD = 50 // isolate the ladder counter
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(cfg, led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	// each tick crosses the next rung: 0.35, 0.30, 0.25, 0.20, then 0.15
	for _, ask := range []float64{0.34, 0.29, 0.24, 0.19, 0.14} {
		bindBooks(store, mkt, ask, 0.70)
		e.Step(context.Background(), mkt, store)
	}

	// levels+1 buys total, the ladder then stops
	assert.Len(t, sink.fills, 4)
}

func TestEngine_DCAThresholdFloorClamp(t *testing.T) {
	cfg := testConfig()
	cfg.EntryThreshold = 0.10
	cfg.DCAStep = 0.06 // second step would compute 0.04 - 0.06 = -0.02
	cfg.DCALevels = 5
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(cfg, led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	bindBooks(store, mkt, 0.09, 0.70)
	e.Step(context.Background(), mkt, store)
	require.Len(t, sink.fills, 1)
	assert.InDelta(t, 0.04, e.nextDCAThreshold[domain.SideUp], 1e-9)

	bindBooks(store, mkt, 0.04, 0.70)
	e.Step(context.Background(), mkt, store)
	require.Len(t, sink.fills, 2)
	assert.InDelta(t, 0.01, e.nextDCAThreshold[domain.SideUp], 1e-9)

	// the ladder keeps triggering at the floor but never sinks below it
	store.Update(domain.OrderBook{
		TokenID: mkt.UpToken,
		Bids:    []domain.BookEntry{{Price: 0.01, Size: 1000}},
		Asks:    []domain.BookEntry{{Price: 0.01, Size: 1000}},
	})
	e.Step(context.Background(), mkt, store)
	require.Len(t, sink.fills, 3)
	assert.InDelta(t, 0.01, e.nextDCAThreshold[domain.SideUp], 1e-9)
}

func TestEngine_SideSpendCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSideSpendUSD = 2
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(cfg, led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	for _, ask := range []float64{0.34, 0.29, 0.24, 0.19} {
		bindBooks(store, mkt, ask, 0.70)
		e.Step(context.Background(), mkt, store)
	}

	assert.Len(t, sink.fills, 2)
	assert.InDelta(t, 2.0, led.Position("BTC", "tok-up").CostUSD, 1e-9)
}

func TestEngine_UpPriorityAndHedge(t *testing.T) {
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(testConfig(), led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	// both sides under the entry threshold: UP wins, DOWN hedges
	bindBooks(store, mkt, 0.30, 0.20)
	e.Step(context.Background(), mkt, store)

	require.Len(t, sink.fills, 2)
	assert.Equal(t, domain.SideUp, e.Primary())
	assert.Equal(t, domain.SideUp, sink.fills[0].Side)
	assert.Equal(t, domain.SideDown, sink.fills[1].Side)
	assert.Equal(t, "hedge_chunk_sumcap_ok", sink.fills[1].Note)

	// hedge cost caught up with the primary's, no further chunks
	e.Step(context.Background(), mkt, store)
	upCost := led.Position("BTC", "tok-up").CostUSD
	dnCost := led.Position("BTC", "tok-dn").CostUSD
	assert.Less(t, dnCost, upCost+1e-9)
}

func TestEngine_HedgeRespectsSumCap(t *testing.T) {
	cfg := testConfig()
	cfg.EntryThreshold = 0.60
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(cfg, led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	// 0.55 + 0.50 projected averages breach the 0.99 cap: entry only
	bindBooks(store, mkt, 0.55, 0.50)
	e.Step(context.Background(), mkt, store)

	require.Len(t, sink.fills, 1)
	assert.Equal(t, domain.SideUp, sink.fills[0].Side)
}

func TestEngine_InsufficientCashNoFill(t *testing.T) {
	led := testLedger(t, 1.00) // chunk + reserve needs 1.05
	sink := &fillRecorder{}
	e := New(testConfig(), led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	bindBooks(store, mkt, 0.30, 0.70)
	e.Step(context.Background(), mkt, store)

	assert.Empty(t, sink.fills)
	assert.InDelta(t, 1.0, led.FreeCash("BTC"), 1e-9)
}

func TestEngine_MissingBookIsNoop(t *testing.T) {
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(testConfig(), led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	store.Update(deepBook(mkt.UpToken, 0.30)) // DOWN book never arrives
	e.Step(context.Background(), mkt, store)

	assert.Empty(t, sink.fills)
	assert.Equal(t, domain.Side(""), e.Primary())
}

func TestEngine_SpreadCapture(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeSpread
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(cfg, led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	bindBooks(store, mkt, 0.80, 0.15)
	e.Step(context.Background(), mkt, store)

	require.Len(t, sink.fills, 2)
	assert.Equal(t, "spread_up_expensive", sink.fills[0].Note)
	assert.Equal(t, "spread_down_cheap", sink.fills[1].Note)
}

func TestEngine_SpreadSumCapBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeSpread
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(cfg, led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	// lopsided but 0.85 + 0.20 >= 1.00
	bindBooks(store, mkt, 0.85, 0.20)
	e.Step(context.Background(), mkt, store)

	assert.Empty(t, sink.fills)
}

func TestEngine_ResetClearsState(t *testing.T) {
	led := testLedger(t, 100)
	sink := &fillRecorder{}
	e := New(testConfig(), led, sink)
	mkt := testMarket()
	store := feed.NewStore()

	bindBooks(store, mkt, 0.34, 0.70)
	e.Step(context.Background(), mkt, store)
	require.Equal(t, domain.SideUp, e.Primary())

	e.Reset()
	assert.Equal(t, domain.Side(""), e.Primary())
}
