package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

func TestStore_UpdateAndGet(t *testing.T) {
	s := NewStore()

	ob := domain.OrderBook{
		TokenID: "tok-1",
		Bids:    []domain.BookEntry{{Price: 0.40, Size: 10}},
		Asks:    []domain.BookEntry{{Price: 0.45, Size: 10}},
	}
	s.Update(ob)

	got := s.Get("tok-1")
	assert.Equal(t, 0.40, got.BestBid())
	assert.Equal(t, 0.45, got.BestAsk())
}

func TestStore_ReplacesWholeBook(t *testing.T) {
	s := NewStore()
	s.Update(domain.OrderBook{
		TokenID: "tok-1",
		Bids:    []domain.BookEntry{{Price: 0.40, Size: 10}},
		Asks:    []domain.BookEntry{{Price: 0.45, Size: 10}},
	})
	s.Update(domain.OrderBook{
		TokenID: "tok-1",
		Asks:    []domain.BookEntry{{Price: 0.50, Size: 5}},
	})

	got := s.Get("tok-1")
	assert.Equal(t, 0.0, got.BestBid()) // old bids are gone, not merged
	assert.Equal(t, 0.50, got.BestAsk())
}

func TestStore_UnknownToken(t *testing.T) {
	s := NewStore()
	got := s.Get("nope")
	assert.False(t, got.HasQuotes())
}

func TestStore_IgnoresEmptyTokenID(t *testing.T) {
	s := NewStore()
	s.Update(domain.OrderBook{Asks: []domain.BookEntry{{Price: 0.5, Size: 1}}})
	assert.False(t, s.Get("").HasQuotes())
}
