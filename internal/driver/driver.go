package driver

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/updownbot/internal/adapters/notify"
	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/feed"
	"github.com/alejandrodnm/updownbot/internal/ledger"
	"github.com/alejandrodnm/updownbot/internal/metrics"
	"github.com/alejandrodnm/updownbot/internal/ports"
	"github.com/alejandrodnm/updownbot/internal/settle"
	"github.com/alejandrodnm/updownbot/internal/strategy"
)

// Config controls the lifecycle loop.
type Config struct {
	Symbols          []string
	SlugPrefixes     map[string]string // symbol → slug prefix
	OnlySymbol       string            // empty = all symbols
	LookbackLimit    int
	Tick             time.Duration
	DiscoveryRefresh time.Duration
	SettleGrace      time.Duration
	SaveEvery        time.Duration
	Artifacts        []string // uploaded best-effort after each settlement
}

// Driver runs the single-threaded trading loop: discover the next market,
// rebind the feed, step the strategy every tick, settle past expiry, and
// snapshot the ledger periodically. The feed workers are the only
// concurrency; everything here runs on one goroutine.
type Driver struct {
	cfg       Config
	discovery ports.MarketDiscovery
	feed      *feed.Feed
	store     *feed.Store
	engine    *strategy.Engine
	resolver  *settle.Resolver
	ledger    *ledger.Ledger
	audit     ports.AuditLog
	console   *notify.Console
	uploader  ports.Uploader

	active        *domain.ActiveMarket
	lastDiscovery time.Time
	lastSave      time.Time
}

// New creates a driver with all collaborators injected.
func New(
	cfg Config,
	discovery ports.MarketDiscovery,
	f *feed.Feed,
	store *feed.Store,
	engine *strategy.Engine,
	resolver *settle.Resolver,
	led *ledger.Ledger,
	auditLog ports.AuditLog,
	console *notify.Console,
	uploader ports.Uploader,
) *Driver {
	if cfg.Tick <= 0 {
		cfg.Tick = 200 * time.Millisecond
	}
	return &Driver{
		cfg:       cfg,
		discovery: discovery,
		feed:      f,
		store:     store,
		engine:    engine,
		resolver:  resolver,
		ledger:    led,
		audit:     auditLog,
		console:   console,
		uploader:  uploader,
	}
}

// Run loops until ctx is cancelled. Cancellation is the only exit; every
// other failure is absorbed and retried on a later tick.
func (d *Driver) Run(ctx context.Context) error {
	slog.Info("driver starting",
		"tick", d.cfg.Tick,
		"discovery_refresh", d.cfg.DiscoveryRefresh,
		"symbol", symbolOrAll(d.cfg.OnlySymbol),
	)

	ticker := time.NewTicker(d.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		case <-ticker.C:
			if err := d.tick(ctx); err != nil {
				d.shutdown()
				return nil // only context cancellation reaches here
			}
		}
	}
}

func (d *Driver) shutdown() {
	slog.Info("driver stopping")
	d.feed.Stop()
	d.ledger.Save()
}

// tick runs one iteration of the cooperative loop.
func (d *Driver) tick(ctx context.Context) error {
	now := time.Now().UTC()

	if d.active == nil || now.Sub(d.lastDiscovery) >= d.cfg.DiscoveryRefresh {
		d.lastDiscovery = now
		d.refreshActiveMarket(ctx)
	}

	if d.active == nil {
		return nil
	}

	d.engine.Step(ctx, *d.active, d.store)

	if d.active.Expired(now, d.cfg.SettleGrace) {
		if err := d.settleActive(ctx); err != nil {
			return err
		}
	}

	if now.Sub(d.lastSave) >= d.cfg.SaveEvery {
		d.lastSave = now
		d.ledger.Save()
	}
	return nil
}

// refreshActiveMarket discovers the next tradable market and rebinds the
// feed when it changed. Discovery failures mean "no candidate this cycle".
func (d *Driver) refreshActiveMarket(ctx context.Context) {
	next, ok := d.discoverNext(ctx)
	if !ok {
		return
	}
	if d.active != nil && next.Slug == d.active.Slug {
		return
	}

	slog.Info("binding new market",
		"symbol", next.Symbol, "slug", next.Slug, "end_time", next.EndTime)

	d.active = &next
	d.engine.Reset()
	d.feed.Rebind(ctx, []string{next.UpToken, next.DownToken})
	d.ledger.SetMeta("active_market", map[string]any{
		"symbol":       next.Symbol,
		"slug":         next.Slug,
		"condition_id": next.ConditionID,
		"end_time":     next.EndTime,
		"up_token":     next.UpToken,
		"down_token":   next.DownToken,
	})
}

// discoverNext lists open markets, keeps the updown markets for the
// configured symbols, enriches entries missing token ids, and picks the
// one ending soonest in the future (or nearest to now if none are ahead).
func (d *Driver) discoverNext(ctx context.Context) (domain.ActiveMarket, bool) {
	markets, err := d.discovery.ListOpenMarkets(ctx, d.cfg.LookbackLimit)
	if err != nil {
		slog.Debug("discovery failed, retrying next refresh", "err", err)
		metrics.DiscoveryErrors.Add(1)
		return domain.ActiveMarket{}, false
	}

	now := time.Now().UTC()
	var candidates []domain.ActiveMarket

	for _, m := range markets {
		symbol := d.symbolFor(m.Slug)
		if symbol == "" {
			continue
		}
		if d.cfg.OnlySymbol != "" && symbol != d.cfg.OnlySymbol {
			continue
		}
		if m.EndTime.IsZero() {
			continue
		}

		if m.UpToken == "" || m.DownToken == "" || m.ConditionID == "" {
			full, err := d.discovery.MarketBySlug(ctx, m.Slug)
			if err != nil {
				continue
			}
			if m.ConditionID == "" {
				m.ConditionID = full.ConditionID
			}
			m.UpToken = full.UpToken
			m.DownToken = full.DownToken
		}
		if m.UpToken == "" || m.DownToken == "" || m.ConditionID == "" {
			continue
		}

		m.Symbol = symbol
		candidates = append(candidates, m)
	}

	if len(candidates) == 0 {
		return domain.ActiveMarket{}, false
	}

	var future []domain.ActiveMarket
	for _, c := range candidates {
		if !c.EndTime.Before(now) {
			future = append(future, c)
		}
	}
	if len(future) > 0 {
		sort.Slice(future, func(i, j int) bool {
			return future[i].EndTime.Before(future[j].EndTime)
		})
		return future[0], true
	}

	sort.Slice(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].EndTime.Sub(now).Seconds()) <
			math.Abs(candidates[j].EndTime.Sub(now).Seconds())
	})
	return candidates[0], true
}

// settleActive resolves the expired market and clears it.
func (d *Driver) settleActive(ctx context.Context) error {
	mkt := *d.active

	res, err := d.resolver.Settle(ctx, mkt, d.store, d.ledger)
	if err != nil {
		return err // context cancelled mid-settlement
	}

	if err := d.audit.RecordResult(ctx, res); err != nil {
		slog.Warn("result record failed", "slug", res.Slug, "err", err)
	}
	d.console.PrintResult(res)

	d.ledger.SetMeta("last_settled", mkt.Slug)
	d.ledger.SetMeta("active_market", nil)
	d.ledger.Save()
	d.active = nil

	d.uploadArtifacts(ctx)
	return nil
}

// uploadArtifacts pushes the state file and audit db, best effort.
func (d *Driver) uploadArtifacts(ctx context.Context) {
	for _, path := range d.cfg.Artifacts {
		if err := d.uploader.Upload(ctx, path); err != nil {
			slog.Debug("artifact upload failed", "path", path, "err", err)
		}
	}
}

// symbolFor matches a slug against the configured prefixes.
func (d *Driver) symbolFor(slug string) string {
	for _, sym := range d.cfg.Symbols {
		if prefix := d.cfg.SlugPrefixes[sym]; prefix != "" && strings.HasPrefix(slug, prefix) {
			return sym
		}
	}
	return ""
}

func symbolOrAll(s string) string {
	if s == "" {
		return "ALL"
	}
	return s
}
