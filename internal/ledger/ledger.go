package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/metrics"
)

// Ledger owns one paper account per symbol and is the only code that
// mutates cash and positions. The strategy and the settlement resolver
// request mutations through it; everything runs on the driver goroutine,
// so no locking is needed here.
type Ledger struct {
	statePath string
	accounts  map[string]*domain.Account
	meta      map[string]any
}

// New creates a ledger with fresh accounts for the given symbols.
func New(statePath string, symbols []string, startingBalance float64) *Ledger {
	l := &Ledger{
		statePath: statePath,
		accounts:  make(map[string]*domain.Account, len(symbols)),
		meta:      make(map[string]any),
	}
	for _, sym := range symbols {
		l.accounts[sym] = domain.NewAccount(sym, startingBalance)
	}
	return l
}

// Account returns the account for a symbol, or nil for unknown symbols.
func (l *Ledger) Account(symbol string) *domain.Account {
	return l.accounts[symbol]
}

// Accounts returns all accounts keyed by symbol.
func (l *Ledger) Accounts() map[string]*domain.Account {
	return l.accounts
}

// SetMeta stores a free-form metadata value persisted with the snapshot.
func (l *Ledger) SetMeta(key string, value any) {
	l.meta[key] = value
}

// FreeCash returns the cash available for a symbol.
func (l *Ledger) FreeCash(symbol string) float64 {
	if a := l.accounts[symbol]; a != nil {
		return a.Cash
	}
	return 0
}

// Position returns the position held in a token for a symbol.
func (l *Ledger) Position(symbol, tokenID string) domain.Position {
	if a := l.accounts[symbol]; a != nil {
		return a.Position(tokenID)
	}
	return domain.Position{}
}

// ApplyBuy debits cash and credits the token position with one fill.
func (l *Ledger) ApplyBuy(symbol, tokenID string, shares, spentUSD float64) error {
	a := l.accounts[symbol]
	if a == nil {
		return fmt.Errorf("ledger.ApplyBuy: unknown symbol %q", symbol)
	}
	if spentUSD > a.Cash {
		return fmt.Errorf("ledger.ApplyBuy: spend %.4f exceeds cash %.4f", spentUSD, a.Cash)
	}

	a.Cash -= spentUSD
	pos := a.Positions[tokenID]
	pos.Shares += shares
	pos.CostUSD += spentUSD
	a.Positions[tokenID] = pos
	return nil
}

// Redeem settles a market: winning shares convert to cash at $1 each and
// both sides' positions are zeroed. Returns the USD credited.
func (l *Ledger) Redeem(symbol, winToken, loseToken string) (float64, error) {
	a := l.accounts[symbol]
	if a == nil {
		return 0, fmt.Errorf("ledger.Redeem: unknown symbol %q", symbol)
	}

	redeem := a.Position(winToken).Shares * 1.0
	a.Cash += redeem
	a.Positions[winToken] = domain.Position{}
	a.Positions[loseToken] = domain.Position{}
	return redeem, nil
}

// --- persistence ---

// stateFile is the on-disk JSON snapshot format.
type stateFile struct {
	Accounts map[string]accountState `json:"accounts"`
	Meta     map[string]any          `json:"meta"`
	SavedAt  time.Time               `json:"saved_at"`
}

type accountState struct {
	Symbol    string                   `json:"symbol"`
	Cash      float64                  `json:"cash"`
	Positions map[string]positionState `json:"positions"`
}

type positionState struct {
	Shares  float64 `json:"shares"`
	CostUSD float64 `json:"cost_usd"`
}

// Load restores accounts from the state file if it exists. Symbols absent
// from the file keep their starting balance; a corrupt file is ignored.
func (l *Ledger) Load() {
	data, err := os.ReadFile(l.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("ledger: state file unreadable, starting fresh", "path", l.statePath, "err", err)
		}
		return
	}

	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		slog.Warn("ledger: state file corrupt, starting fresh", "path", l.statePath, "err", err)
		return
	}

	if st.Meta != nil {
		l.meta = st.Meta
	}
	for sym, acct := range l.accounts {
		saved, ok := st.Accounts[sym]
		if !ok {
			continue
		}
		acct.Cash = saved.Cash
		for tok, p := range saved.Positions {
			acct.Positions[tok] = domain.Position{Shares: p.Shares, CostUSD: p.CostUSD}
		}
	}

	slog.Info("ledger: state restored", "path", l.statePath, "saved_at", st.SavedAt)
}

// Save writes the snapshot atomically (temp file + rename). Best effort:
// failures are logged and the next periodic save retries.
func (l *Ledger) Save() {
	st := stateFile{
		Accounts: make(map[string]accountState, len(l.accounts)),
		Meta:     l.meta,
		SavedAt:  time.Now().UTC(),
	}
	for sym, acct := range l.accounts {
		as := accountState{
			Symbol:    sym,
			Cash:      acct.Cash,
			Positions: make(map[string]positionState, len(acct.Positions)),
		}
		for tok, p := range acct.Positions {
			as.Positions[tok] = positionState{Shares: p.Shares, CostUSD: p.CostUSD}
		}
		st.Accounts[sym] = as
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		slog.Warn("ledger: marshal state failed", "err", err)
		metrics.SnapshotSaveFails.Add(1)
		return
	}

	tmp := l.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Warn("ledger: write state failed", "path", tmp, "err", err)
		metrics.SnapshotSaveFails.Add(1)
		return
	}
	if err := os.Rename(tmp, l.statePath); err != nil {
		slog.Warn("ledger: rename state failed", "path", l.statePath, "err", err)
		metrics.SnapshotSaveFails.Add(1)
		_ = os.Remove(tmp)
		return
	}
	metrics.SnapshotSaves.Add(1)
}

// StatePath returns the snapshot location, for artifact uploads.
func (l *Ledger) StatePath() string {
	return filepath.Clean(l.statePath)
}
