package ports

import (
	"context"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// BookProvider fetches full order book snapshots via the batch REST endpoint.
type BookProvider interface {
	// FetchOrderBooks returns the books for the given token ids.
	FetchOrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error)
}

// BookStreamer maintains one streaming subscription for a token set and
// invokes apply for every inbound book snapshot. It returns when the
// connection dies or ctx is cancelled; the caller supervises reconnects.
type BookStreamer interface {
	Stream(ctx context.Context, tokenIDs []string, apply func(domain.OrderBook)) error
}
