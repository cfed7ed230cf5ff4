package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderBook_BestQuotes(t *testing.T) {
	ob := OrderBook{
		TokenID: "tok",
		Bids:    []BookEntry{{Price: 0.44, Size: 100}, {Price: 0.42, Size: 50}},
		Asks:    []BookEntry{{Price: 0.46, Size: 80}, {Price: 0.48, Size: 30}},
	}

	assert.Equal(t, 0.44, ob.BestBid())
	assert.Equal(t, 0.46, ob.BestAsk())
	assert.True(t, ob.HasQuotes())
}

func TestOrderBook_Empty(t *testing.T) {
	var ob OrderBook

	assert.Equal(t, 0.0, ob.BestBid())
	assert.Equal(t, 0.0, ob.BestAsk())
	assert.False(t, ob.HasQuotes())

	onlyBids := OrderBook{Bids: []BookEntry{{Price: 0.5, Size: 1}}}
	assert.False(t, onlyBids.HasQuotes())
}

func TestConsumeAsks_WalksLevels(t *testing.T) {
	ob := OrderBook{
		Asks: []BookEntry{
			{Price: 0.10, Size: 5},
			{Price: 0.12, Size: 10},
		},
	}

	// $0.50 fills the first level, $0.60 buys 5 more at 0.12.
	shares, avg, spent := ConsumeAsks(ob, 1.10)

	assert.InDelta(t, 10.0, shares, 1e-9)
	assert.InDelta(t, 0.11, avg, 1e-9)
	assert.InDelta(t, 1.10, spent, 1e-9)
}

func TestConsumeAsks_PartialLevel(t *testing.T) {
	ob := OrderBook{
		Asks: []BookEntry{{Price: 0.50, Size: 100}},
	}

	shares, avg, spent := ConsumeAsks(ob, 1.00)

	assert.InDelta(t, 2.0, shares, 1e-9)
	assert.InDelta(t, 0.50, avg, 1e-9)
	assert.InDelta(t, 1.00, spent, 1e-9)
}

func TestConsumeAsks_ThinBook(t *testing.T) {
	ob := OrderBook{
		Asks: []BookEntry{{Price: 0.30, Size: 2}},
	}

	// budget exceeds depth: spend stops at what the book offers
	shares, avg, spent := ConsumeAsks(ob, 10.00)

	assert.InDelta(t, 2.0, shares, 1e-9)
	assert.InDelta(t, 0.30, avg, 1e-9)
	assert.InDelta(t, 0.60, spent, 1e-9)
}

func TestConsumeAsks_NoLiquidity(t *testing.T) {
	shares, avg, spent := ConsumeAsks(OrderBook{}, 5)
	assert.Zero(t, shares)
	assert.Zero(t, avg)
	assert.Zero(t, spent)

	bad := OrderBook{Asks: []BookEntry{{Price: 0, Size: 100}}}
	shares, _, _ = ConsumeAsks(bad, 5)
	assert.Zero(t, shares)
}
