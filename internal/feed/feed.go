package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/metrics"
	"github.com/alejandrodnm/updownbot/internal/ports"
)

// Config controls the two acquisition paths.
type Config struct {
	// PreferStream enables the websocket supervisor. The REST poller runs
	// in both modes so reconnect gaps never leave the store stale.
	PreferStream   bool
	PollInterval   time.Duration
	ReconnectDelay time.Duration
}

// Feed keeps the Store current for a settable token set.
// Rebind stops both workers and restarts them with the new set: a clean
// resubscribe rather than incremental subscription diffing, since the set
// changes once per market cycle.
type Feed struct {
	cfg      Config
	store    *Store
	books    ports.BookProvider
	streamer ports.BookStreamer

	mu     sync.Mutex
	tokens []string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped feed. streamer may be nil when streaming is disabled.
func New(cfg Config, store *Store, books ports.BookProvider, streamer ports.BookStreamer) *Feed {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 700 * time.Millisecond
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Feed{cfg: cfg, store: store, books: books, streamer: streamer}
}

// Rebind replaces the tracked token set and restarts both workers.
// A no-op when the set is unchanged.
func (f *Feed) Rebind(ctx context.Context, tokenIDs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if equalTokens(f.tokens, tokenIDs) {
		return
	}

	f.stopLocked()
	f.tokens = append([]string(nil), tokenIDs...)
	f.startLocked(ctx)

	slog.Info("feed rebound", "tokens", len(f.tokens))
}

// Stop halts both workers and waits for them to exit.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
	f.tokens = nil
}

func (f *Feed) startLocked(ctx context.Context) {
	if len(f.tokens) == 0 {
		return
	}

	ctx, f.cancel = context.WithCancel(ctx)
	tokens := append([]string(nil), f.tokens...)

	f.wg.Add(1)
	go f.pollLoop(ctx, tokens)

	if f.cfg.PreferStream && f.streamer != nil {
		f.wg.Add(1)
		go f.streamLoop(ctx, tokens)
	}
}

func (f *Feed) stopLocked() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.wg.Wait()
}

// pollLoop fetches batch snapshots for all tracked tokens on a fixed
// interval. Errors are logged and skipped; the loop never dies.
func (f *Feed) pollLoop(ctx context.Context, tokens []string) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			books, err := f.books.FetchOrderBooks(ctx, tokens)
			if err != nil {
				slog.Debug("feed: poll failed", "err", err)
				continue
			}
			for _, ob := range books {
				f.store.Update(ob)
				metrics.BookUpdatesPoll.Add(1)
			}
		}
	}
}

// streamLoop supervises the websocket subscription: one Stream call per
// connection lifetime, reconnecting after a fixed delay until stopped.
func (f *Feed) streamLoop(ctx context.Context, tokens []string) {
	defer f.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		err := f.streamer.Stream(ctx, tokens, func(ob domain.OrderBook) {
			f.store.Update(ob)
			metrics.BookUpdatesStream.Add(1)
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("feed: stream disconnected, will reconnect",
				"err", err, "delay", f.cfg.ReconnectDelay)
			metrics.StreamReconnects.Add(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.cfg.ReconnectDelay):
		}
	}
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
