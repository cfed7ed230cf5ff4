package feed

import (
	"sync"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// Store holds the latest order book snapshot per token id.
// Both feed workers write into it concurrently; the driver thread reads.
// Every update replaces the whole book, so readers always see a
// consistent snapshot.
type Store struct {
	mu    sync.Mutex
	books map[string]domain.OrderBook
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{books: make(map[string]domain.OrderBook)}
}

// Update replaces the book for the snapshot's token id.
func (s *Store) Update(ob domain.OrderBook) {
	if ob.TokenID == "" {
		return
	}
	s.mu.Lock()
	s.books[ob.TokenID] = ob
	s.mu.Unlock()
}

// Get returns the latest book for a token id, or an empty book if the
// token has never been seen. Never blocks beyond the map lock.
func (s *Store) Get(tokenID string) domain.OrderBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ob, ok := s.books[tokenID]; ok {
		return ob
	}
	return domain.OrderBook{TokenID: tokenID}
}
