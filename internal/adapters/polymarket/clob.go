package polymarket

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

const (
	booksPath = "/books"
	batchSize = 20 // max token_ids per request to /books
)

// FetchOrderBooks fetches full book snapshots via the batch endpoint.
// The feed only tracks the two tokens of the active market, so this is a
// single request in practice; batching is kept for larger token sets.
func (c *Client) FetchOrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	result := make(map[string]domain.OrderBook, len(tokenIDs))

	for i := 0; i < len(tokenIDs); i += batchSize {
		end := i + batchSize
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}

		batch := tokenIDs[i:end]
		body := make([]orderBookRequest, len(batch))
		for j, id := range batch {
			body[j] = orderBookRequest{TokenID: id}
		}

		var resp []orderBookResponse
		if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
			return nil, fmt.Errorf("clob.FetchOrderBooks: POST /books: %w", err)
		}

		for _, r := range resp {
			if r.AssetID == "" {
				continue
			}
			result[r.AssetID] = mapOrderBook(r.AssetID, r.Bids, r.Asks)
		}
	}

	return result, nil
}
