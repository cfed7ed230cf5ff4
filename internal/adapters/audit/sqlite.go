package audit

// Append-only audit trail.
//
// Two tables, insert-only, never updated: `fills` records every simulated
// buy, `results` one row per settled market. Independent of the JSON state
// snapshot so a corrupt snapshot never loses trading history.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/alejandrodnm/updownbot/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS fills (
    id       TEXT PRIMARY KEY,
    ts       DATETIME NOT NULL,
    slug     TEXT NOT NULL,
    symbol   TEXT NOT NULL,
    token_id TEXT NOT NULL,
    side     TEXT NOT NULL,
    price    REAL NOT NULL,
    shares   REAL NOT NULL,
    usd      REAL NOT NULL,
    note     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS results (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    ts            DATETIME NOT NULL,
    slug          TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    end_time_utc  DATETIME,
    winner        TEXT NOT NULL,
    up_token      TEXT NOT NULL,
    down_token    TEXT NOT NULL,
    up_shares     REAL NOT NULL DEFAULT 0,
    down_shares   REAL NOT NULL DEFAULT 0,
    up_cost       REAL NOT NULL DEFAULT 0,
    down_cost     REAL NOT NULL DEFAULT 0,
    pnl           REAL NOT NULL DEFAULT 0,
    balance_after REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_fills_ts     ON fills(ts DESC);
CREATE INDEX IF NOT EXISTS idx_fills_slug   ON fills(slug);
CREATE INDEX IF NOT EXISTS idx_results_ts   ON results(ts DESC);
CREATE INDEX IF NOT EXISTS idx_results_sym  ON results(symbol);
`

// SQLiteAudit implements ports.AuditLog on SQLite (pure Go, no CGo).
type SQLiteAudit struct {
	db   *sql.DB
	path string
}

// NewSQLiteAudit opens (or creates) the audit database and applies the schema.
func NewSQLiteAudit(path string) (*SQLiteAudit, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit.NewSQLiteAudit: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit.NewSQLiteAudit: apply schema: %w", err)
	}

	return &SQLiteAudit{db: db, path: path}, nil
}

// RecordFill appends one fill row.
func (a *SQLiteAudit) RecordFill(ctx context.Context, f domain.Fill) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO fills (id, ts, slug, symbol, token_id, side, price, shares, usd, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.TS.UTC(), f.Slug, f.Symbol, f.TokenID, string(f.Side),
		f.Price, f.Shares, f.USD, f.Note,
	)
	if err != nil {
		return fmt.Errorf("audit.RecordFill: %w", err)
	}
	return nil
}

// RecordResult appends one settlement row.
func (a *SQLiteAudit) RecordResult(ctx context.Context, r domain.MarketResult) error {
	var endTime *time.Time
	if !r.EndTime.IsZero() {
		t := r.EndTime.UTC()
		endTime = &t
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO results
			(ts, slug, symbol, end_time_utc, winner, up_token, down_token,
			 up_shares, down_shares, up_cost, down_cost, pnl, balance_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TS.UTC(), r.Slug, r.Symbol, endTime, string(r.Winner),
		r.UpToken, r.DownToken,
		r.UpShares, r.DownShares, r.UpCost, r.DownCost,
		r.PnL, r.BalanceAfter,
	)
	if err != nil {
		return fmt.Errorf("audit.RecordResult: %w", err)
	}
	return nil
}

// RunStats aggregates the whole audit history for the exit report.
func (a *SQLiteAudit) RunStats(ctx context.Context) (ports.RunStats, error) {
	stats := ports.RunStats{
		PnLBySymbol:   make(map[string]float64),
		FillsBySymbol: make(map[string]int),
	}

	row := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usd), 0) FROM fills`)
	if err := row.Scan(&stats.TotalFills, &stats.TotalBuysUSD); err != nil {
		return stats, fmt.Errorf("audit.RunStats: fills: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT symbol, COUNT(*), COALESCE(SUM(pnl), 0)
		FROM results GROUP BY symbol`)
	if err != nil {
		return stats, fmt.Errorf("audit.RunStats: results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sym string
		var n int
		var pnl float64
		if err := rows.Scan(&sym, &n, &pnl); err != nil {
			return stats, fmt.Errorf("audit.RunStats: scan: %w", err)
		}
		stats.TotalMarkets += n
		stats.TotalPnL += pnl
		stats.PnLBySymbol[sym] = pnl
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("audit.RunStats: rows: %w", err)
	}

	fillRows, err := a.db.QueryContext(ctx,
		`SELECT symbol, COUNT(*) FROM fills GROUP BY symbol`)
	if err != nil {
		return stats, fmt.Errorf("audit.RunStats: fills by symbol: %w", err)
	}
	defer fillRows.Close()

	for fillRows.Next() {
		var sym string
		var n int
		if err := fillRows.Scan(&sym, &n); err != nil {
			return stats, fmt.Errorf("audit.RunStats: scan: %w", err)
		}
		stats.FillsBySymbol[sym] = n
	}
	return stats, fillRows.Err()
}

// Path returns the database location, for artifact uploads.
func (a *SQLiteAudit) Path() string {
	return a.path
}

// Close closes the database cleanly.
func (a *SQLiteAudit) Close() error {
	return a.db.Close()
}
