package settle

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/feed"
	"github.com/alejandrodnm/updownbot/internal/ledger"
	"github.com/alejandrodnm/updownbot/internal/metrics"
)

// defaultWinner breaks an exact best-bid tie after the wait times out.
// TODO: replace with the exchange's published tie rule once confirmed.
const defaultWinner = domain.SideUp

// Config bounds the settlement wait.
type Config struct {
	SignalBid float64       // a best bid at/above this resolves the market
	MaxWait   time.Duration // forced decision after this
	Poll      time.Duration
}

// Resolver decides the winner of an expired market and redeems positions.
type Resolver struct {
	cfg Config
}

// New creates a resolver.
func New(cfg Config) *Resolver {
	if cfg.Poll <= 0 {
		cfg.Poll = 500 * time.Millisecond
	}
	return &Resolver{cfg: cfg}
}

// Settle blocks until a winner is decided, then redeems through the ledger
// and returns the immutable result. The wait is bounded by MaxWait; after
// that the higher best bid wins, ties going to the default side. The only
// error is context cancellation.
func (r *Resolver) Settle(ctx context.Context, mkt domain.ActiveMarket, store *feed.Store, led *ledger.Ledger) (domain.MarketResult, error) {
	upPos := led.Position(mkt.Symbol, mkt.UpToken)
	downPos := led.Position(mkt.Symbol, mkt.DownToken)

	winner, forced, err := r.waitForWinner(ctx, mkt, store)
	if err != nil {
		return domain.MarketResult{}, err
	}

	winToken, loseToken := mkt.UpToken, mkt.DownToken
	if winner == domain.SideDown {
		winToken, loseToken = mkt.DownToken, mkt.UpToken
	}

	redeem, err := led.Redeem(mkt.Symbol, winToken, loseToken)
	if err != nil {
		return domain.MarketResult{}, err
	}

	res := domain.MarketResult{
		TS:           time.Now().UTC(),
		Slug:         mkt.Slug,
		Symbol:       mkt.Symbol,
		EndTime:      mkt.EndTime,
		Winner:       winner,
		UpToken:      mkt.UpToken,
		DownToken:    mkt.DownToken,
		UpShares:     upPos.Shares,
		DownShares:   downPos.Shares,
		UpCost:       upPos.CostUSD,
		DownCost:     downPos.CostUSD,
		PnL:          redeem - (upPos.CostUSD + downPos.CostUSD),
		BalanceAfter: led.FreeCash(mkt.Symbol),
	}

	metrics.Settlements.Add(1)
	slog.Info("market settled",
		"slug", mkt.Slug, "winner", winner, "forced", forced,
		"redeem", redeem, "pnl", res.PnL, "balance", res.BalanceAfter)

	return res, nil
}

// waitForWinner polls both best bids until one crosses the signal level or
// the wait budget runs out, then forces a direct comparison.
func (r *Resolver) waitForWinner(ctx context.Context, mkt domain.ActiveMarket, store *feed.Store) (winner domain.Side, forced bool, err error) {
	deadline := time.Now().Add(r.cfg.MaxWait)

	for time.Now().Before(deadline) {
		if w, ok := r.signalWinner(mkt, store); ok {
			return w, false, nil
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(r.cfg.Poll):
		}
	}

	return r.forceWinner(mkt, store), true, nil
}

// signalWinner reports a winner only when one side's best bid has reached
// the settlement signal level.
func (r *Resolver) signalWinner(mkt domain.ActiveMarket, store *feed.Store) (domain.Side, bool) {
	upBid := store.Get(mkt.UpToken).BestBid()
	downBid := store.Get(mkt.DownToken).BestBid()

	if upBid <= 0 && downBid <= 0 {
		return "", false
	}
	if upBid >= r.cfg.SignalBid {
		return domain.SideUp, true
	}
	if downBid >= r.cfg.SignalBid {
		return domain.SideDown, true
	}
	return "", false
}

// forceWinner compares best bids directly; the higher bid wins and an
// exact tie resolves to the default side.
func (r *Resolver) forceWinner(mkt domain.ActiveMarket, store *feed.Store) domain.Side {
	upBid := store.Get(mkt.UpToken).BestBid()
	downBid := store.Get(mkt.DownToken).BestBid()

	slog.Warn("settlement signal timed out, forcing decision",
		"slug", mkt.Slug, "up_bid", upBid, "down_bid", downBid)

	switch {
	case upBid > downBid:
		return domain.SideUp
	case downBid > upBid:
		return domain.SideDown
	default:
		return defaultWinner
	}
}
