package app

import (
	"sync"

	"github.com/quotehub/quotehub/internal/domain"
)

// Filter returns the quotes matching a case-insensitive substring query
// against author, text, or any tag. An empty query matches everything.
// Source order is preserved and the input is never mutated.
func Filter(quotes []domain.Quote, query string) []domain.Quote {
	matched := make([]domain.Quote, 0, len(quotes))
	for _, quote := range quotes {
		if quote.Matches(query) {
			matched = append(matched, quote)
		}
	}

	return matched
}

// Shelf is the displayed quote collection: ordered, safe for concurrent
// mutation, and cheap to snapshot. The bookmark toggle mutates it
// optimistically, so removals remember their position for rollback.
type Shelf struct {
	mu     sync.RWMutex
	quotes []domain.Quote
}

// NewShelf creates an empty shelf.
func NewShelf() *Shelf {
	return &Shelf{quotes: []domain.Quote{}}
}

// Replace swaps the whole collection, preserving the given order.
func (s *Shelf) Replace(quotes []domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes = make([]domain.Quote, len(quotes))
	copy(s.quotes, quotes)
}

// Items returns a snapshot copy in display order.
func (s *Shelf) Items() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Quote, len(s.quotes))
	copy(items, s.quotes)

	return items
}

// Filtered returns the snapshot narrowed by a query.
func (s *Shelf) Filtered(query string) []domain.Quote {
	return Filter(s.Items(), query)
}

// Add appends a quote if it is not already shelved.
// Reports whether the shelf changed.
func (s *Shelf) Add(quote domain.Quote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range s.quotes {
		if q.ID == quote.ID {
			return false
		}
	}

	s.quotes = append(s.quotes, quote)

	return true
}

// Remove takes a quote off the shelf, returning the removed quote and
// the position it held so a rollback can put it back where it was.
func (s *Shelf) Remove(id string) (domain.Quote, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, q := range s.quotes {
		if q.ID == id {
			s.quotes = append(s.quotes[:i], s.quotes[i+1:]...)

			return q, i, true
		}
	}

	return domain.Quote{}, 0, false
}

// Insert puts a quote back at a position, clamping out-of-range indexes.
func (s *Shelf) Insert(index int, quote domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 {
		index = 0
	}
	if index > len(s.quotes) {
		index = len(s.quotes)
	}

	s.quotes = append(s.quotes[:index], append([]domain.Quote{quote}, s.quotes[index:]...)...)
}

// Has reports whether a quote is shelved.
func (s *Shelf) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.quotes {
		if q.ID == id {
			return true
		}
	}

	return false
}

// Len returns the number of shelved quotes.
func (s *Shelf) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}
