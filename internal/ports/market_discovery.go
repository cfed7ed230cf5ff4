package ports

import (
	"context"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// MarketDiscovery lists candidate markets from the catalog API.
type MarketDiscovery interface {
	// ListOpenMarkets returns up to limit currently open markets.
	// Entries missing token ids or condition id are returned as-is;
	// callers enrich them via MarketBySlug.
	ListOpenMarkets(ctx context.Context, limit int) ([]domain.ActiveMarket, error)

	// MarketBySlug fetches one market's full metadata as a fallback when
	// the list endpoint omits token ids.
	MarketBySlug(ctx context.Context, slug string) (domain.ActiveMarket, error)
}
