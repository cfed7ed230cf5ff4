package ports

import (
	"context"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// RunStats is the aggregate of the whole audit history, for the exit report.
type RunStats struct {
	TotalFills    int
	TotalBuysUSD  float64
	TotalMarkets  int
	TotalPnL      float64
	PnLBySymbol   map[string]float64
	FillsBySymbol map[string]int
}

// AuditLog records every simulated fill and settlement to durable,
// append-only storage. Write failures are the caller's to swallow.
type AuditLog interface {
	RecordFill(ctx context.Context, fill domain.Fill) error
	RecordResult(ctx context.Context, res domain.MarketResult) error
	RunStats(ctx context.Context) (RunStats, error)
	Close() error
}
