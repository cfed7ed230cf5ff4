package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

const gammaMarketsPath = "/markets"

// ListOpenMarkets returns up to limit open markets from Gamma.
// Markets missing token ids are returned as-is so the caller can decide
// whether to enrich them via MarketBySlug.
func (c *Client) ListOpenMarkets(ctx context.Context, limit int) ([]domain.ActiveMarket, error) {
	url := fmt.Sprintf("%s%s?limit=%d&closed=false", c.gammaBase, gammaMarketsPath, limit)

	var resp []gammaMarket
	if err := c.get(ctx, c.gammaLimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("gamma.ListOpenMarkets: %w", err)
	}

	markets := make([]domain.ActiveMarket, 0, len(resp))
	for _, gm := range resp {
		if gm.Slug == "" {
			continue
		}
		markets = append(markets, mapGammaMarket(gm))
	}

	slog.Debug("open markets listed", "count", len(markets))
	return markets, nil
}

// MarketBySlug fetches one market's full metadata. Used as fallback when
// the list endpoint omits clobTokenIds.
func (c *Client) MarketBySlug(ctx context.Context, slug string) (domain.ActiveMarket, error) {
	url := fmt.Sprintf("%s%s/slug/%s", c.gammaBase, gammaMarketsPath, slug)

	var gm gammaMarket
	if err := c.get(ctx, c.gammaLimiter, url, &gm); err != nil {
		return domain.ActiveMarket{}, fmt.Errorf("gamma.MarketBySlug %q: %w", slug, err)
	}
	return mapGammaMarket(gm), nil
}
