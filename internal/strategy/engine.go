package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/feed"
	"github.com/alejandrodnm/updownbot/internal/ledger"
	"github.com/alejandrodnm/updownbot/internal/metrics"
)

// Mode selects which decision logic Step runs. Configured once at startup,
// never switched at runtime.
type Mode string

const (
	// ModeThreshold is the threshold-entry + DCA ladder + hedge strategy.
	ModeThreshold Mode = "threshold"
	// ModeSpread buys both sides when their asks are lopsided and sum < $1.
	ModeSpread Mode = "spread"
)

// Config holds the strategy parameters, all prices in dollars.
type Config struct {
	Mode Mode

	BuyChunkUSD     float64
	MaxSideSpendUSD float64
	RequireFreeCash float64

	EntryThreshold float64 // first buy when a side's ask ≤ this
	DCAStep        float64
	DCALevels      int
	SumCap         float64 // combined-price cap for hedge chunks

	ExpensiveMin float64
	CheapMax     float64
	SpreadSumCap float64
}

// FillSink receives every simulated fill the engine produces.
type FillSink interface {
	RecordFill(ctx context.Context, fill domain.Fill) error
}

// Engine is the per-market decision state machine. All state below cfg is
// scratch for the currently bound market and is wiped by Reset.
type Engine struct {
	cfg    Config
	ledger *ledger.Ledger
	sink   FillSink

	primary          domain.Side // "" until an entry triggers
	nextDCAThreshold map[domain.Side]float64
	dcaBuysDone      map[domain.Side]int
}

// New creates an engine ready for its first market.
func New(cfg Config, led *ledger.Ledger, sink FillSink) *Engine {
	e := &Engine{cfg: cfg, ledger: led, sink: sink}
	e.Reset()
	return e
}

// Reset wipes all per-market scratch state. Called whenever the driver
// binds a new active market.
func (e *Engine) Reset() {
	e.primary = ""
	e.nextDCAThreshold = map[domain.Side]float64{
		domain.SideUp:   e.cfg.EntryThreshold,
		domain.SideDown: e.cfg.EntryThreshold,
	}
	e.dcaBuysDone = map[domain.Side]int{
		domain.SideUp:   0,
		domain.SideDown: 0,
	}
}

// Primary returns the side currently held as primary ("" if none yet).
func (e *Engine) Primary() domain.Side {
	return e.primary
}

// Step runs one decision tick against the latest books. A tick with any
// side of either book missing is a no-op.
func (e *Engine) Step(ctx context.Context, mkt domain.ActiveMarket, store *feed.Store) {
	upBook := store.Get(mkt.UpToken)
	downBook := store.Get(mkt.DownToken)

	if !upBook.HasQuotes() || !downBook.HasQuotes() {
		return
	}

	switch e.cfg.Mode {
	case ModeThreshold:
		e.stepThreshold(ctx, mkt, upBook, downBook)
	case ModeSpread:
		e.stepSpread(ctx, mkt, upBook, downBook)
	}
}

// stepThreshold: pick a primary side once its ask dips under the entry
// threshold (UP checked first when both qualify), ladder DCA buys on it,
// and accumulate hedge chunks on the opposite side while the combined
// average price stays under the cap.
func (e *Engine) stepThreshold(ctx context.Context, mkt domain.ActiveMarket, upBook, downBook domain.OrderBook) {
	upAsk := upBook.BestAsk()
	downAsk := downBook.BestAsk()

	if e.primary == "" {
		if upAsk <= e.cfg.EntryThreshold {
			e.primary = domain.SideUp
		} else if downAsk <= e.cfg.EntryThreshold {
			e.primary = domain.SideDown
		}
		if e.primary != "" {
			slog.Info("primary side chosen",
				"slug", mkt.Slug, "side", e.primary,
				"up_ask", upAsk, "down_ask", downAsk)
		}
	}

	switch e.primary {
	case domain.SideUp:
		e.dcaIfTriggered(ctx, mkt, domain.SideUp, upBook, upAsk)
	case domain.SideDown:
		e.dcaIfTriggered(ctx, mkt, domain.SideDown, downBook, downAsk)
	default:
		return
	}

	primaryToken := mkt.TokenFor(e.primary)
	if e.ledger.Position(mkt.Symbol, primaryToken).CostUSD <= 0 {
		return
	}

	hedge := e.primary.Opposite()
	hedgeBook, hedgeAsk := downBook, downAsk
	if hedge == domain.SideUp {
		hedgeBook, hedgeAsk = upBook, upAsk
	}
	e.hedgeChunks(ctx, mkt, hedge, hedgeBook, hedgeAsk)
}

// dcaIfTriggered performs one ladder buy when the side's ask reaches the
// next threshold. The counter and the threshold advance with the attempt,
// so the ladder keeps descending even when a buy no-ops on liquidity.
func (e *Engine) dcaIfTriggered(ctx context.Context, mkt domain.ActiveMarket, side domain.Side, book domain.OrderBook, bestAsk float64) {
	pos := e.ledger.Position(mkt.Symbol, mkt.TokenFor(side))
	if pos.CostUSD >= e.cfg.MaxSideSpendUSD {
		return
	}

	threshold := e.nextDCAThreshold[side]
	if bestAsk > threshold {
		return
	}
	if e.dcaBuysDone[side] > e.cfg.DCALevels {
		return
	}

	e.maybeBuy(ctx, mkt, side, book, string(side)+"_entry_or_dca")
	e.dcaBuysDone[side]++
	e.nextDCAThreshold[side] = clamp(threshold-e.cfg.DCAStep, 0.01, 0.99)
}

// hedgeChunks buys fixed chunks on the opposite side while every gate
// holds: hedge ask at/under entry, hedge cost below both the per-side cap
// and the primary's cost, and the projected combined average price under
// the sum cap. The projection is a dry-run walk of the hedge book before
// any cash moves.
func (e *Engine) hedgeChunks(ctx context.Context, mkt domain.ActiveMarket, hedge domain.Side, hedgeBook domain.OrderBook, hedgeAsk float64) {
	if hedgeAsk > e.cfg.EntryThreshold {
		return
	}

	const eps = 1e-9
	primaryToken := mkt.TokenFor(e.primary)
	hedgeToken := mkt.TokenFor(hedge)

	for {
		primaryPos := e.ledger.Position(mkt.Symbol, primaryToken)
		hedgePos := e.ledger.Position(mkt.Symbol, hedgeToken)

		if hedgePos.CostUSD+eps >= primaryPos.CostUSD {
			return
		}
		if hedgePos.CostUSD >= e.cfg.MaxSideSpendUSD {
			return
		}

		estShares, estAvg, estSpent := domain.ConsumeAsks(hedgeBook, e.cfg.BuyChunkUSD)
		if estShares <= 0 || estSpent <= 0 {
			return
		}
		if primaryPos.AvgPrice()+estAvg >= e.cfg.SumCap {
			return
		}

		if !e.maybeBuy(ctx, mkt, hedge, hedgeBook, "hedge_chunk_sumcap_ok") {
			return
		}
	}
}

// stepSpread: one symmetric capture per orientation when one side is
// expensive, the other cheap, and the pair still sums below $1.
func (e *Engine) stepSpread(ctx context.Context, mkt domain.ActiveMarket, upBook, downBook domain.OrderBook) {
	upAsk := upBook.BestAsk()
	downAsk := downBook.BestAsk()

	if upAsk >= e.cfg.ExpensiveMin && downAsk <= e.cfg.CheapMax && upAsk+downAsk < e.cfg.SpreadSumCap {
		e.maybeBuy(ctx, mkt, domain.SideUp, upBook, "spread_up_expensive")
		e.maybeBuy(ctx, mkt, domain.SideDown, downBook, "spread_down_cheap")
	}

	if downAsk >= e.cfg.ExpensiveMin && upAsk <= e.cfg.CheapMax && downAsk+upAsk < e.cfg.SpreadSumCap {
		e.maybeBuy(ctx, mkt, domain.SideDown, downBook, "spread_down_expensive")
		e.maybeBuy(ctx, mkt, domain.SideUp, upBook, "spread_up_cheap")
	}
}

// maybeBuy simulates one fixed-chunk buy against the book. Insufficient
// free cash or zero fillable depth are silent no-ops, not errors.
// Returns true when a fill was applied.
func (e *Engine) maybeBuy(ctx context.Context, mkt domain.ActiveMarket, side domain.Side, book domain.OrderBook, note string) bool {
	chunk := e.cfg.BuyChunkUSD
	if chunk <= 0 {
		return false
	}
	if e.ledger.FreeCash(mkt.Symbol) < chunk+e.cfg.RequireFreeCash {
		return false
	}

	shares, avg, spent := domain.ConsumeAsks(book, chunk)
	if shares <= 0 || spent <= 0 {
		return false
	}

	tokenID := mkt.TokenFor(side)
	if err := e.ledger.ApplyBuy(mkt.Symbol, tokenID, shares, spent); err != nil {
		slog.Warn("buy rejected by ledger", "slug", mkt.Slug, "side", side, "err", err)
		return false
	}

	fill := domain.Fill{
		ID:      uuid.New().String(),
		TS:      time.Now().UTC(),
		Slug:    mkt.Slug,
		Symbol:  mkt.Symbol,
		TokenID: tokenID,
		Side:    side,
		Price:   avg,
		Shares:  shares,
		USD:     spent,
		Note:    note,
	}
	metrics.Fills.Add(1)

	if e.sink != nil {
		if err := e.sink.RecordFill(ctx, fill); err != nil {
			slog.Warn("fill record failed", "slug", mkt.Slug, "err", err)
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
