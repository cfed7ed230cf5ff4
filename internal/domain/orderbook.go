package domain

import "time"

// OrderBook is the latest full snapshot of one outcome token's book.
// Books are replaced wholesale on every update, never merged incrementally.
type OrderBook struct {
	TokenID   string
	Bids      []BookEntry // ordered highest price first
	Asks      []BookEntry // ordered lowest price first
	UpdatedAt time.Time
}

// BookEntry is one aggregated price level.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid returns the highest bid price, or 0 if the book is empty.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 if the book is empty.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// HasQuotes reports whether both sides of the book have at least one level.
func (ob OrderBook) HasQuotes() bool {
	return len(ob.Bids) > 0 && len(ob.Asks) > 0
}

// ConsumeAsks simulates a market buy with a fixed USD budget against the
// ask ladder: it walks levels from the best ask, taking
// min(level.size, remaining/level.price) shares per level, until the budget
// runs out or depth is exhausted. Returns shares bought, average price and
// USD actually spent. Zero shares means the book had no usable liquidity.
func ConsumeAsks(ob OrderBook, budgetUSD float64) (shares, avgPrice, spentUSD float64) {
	const eps = 1e-9
	remaining := budgetUSD

	for _, lvl := range ob.Asks {
		if remaining <= eps {
			break
		}
		if lvl.Price <= 0 {
			continue
		}
		take := lvl.Size
		if maxShares := remaining / lvl.Price; maxShares < take {
			take = maxShares
		}
		if take <= 0 {
			continue
		}
		cost := take * lvl.Price
		shares += take
		spentUSD += cost
		remaining -= cost
	}

	if shares > 0 {
		avgPrice = spentUSD / shares
	}
	return shares, avgPrice, spentUSD
}
