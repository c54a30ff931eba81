// Package domain contains core business entities and rules.
package domain

import (
	"strings"
	"time"
)

// Quote represents a quotation with its author and usage counters.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the unique identifier for this quote.
	ID string

	// Text is the body of the quote.
	Text string

	// Author is who said or wrote the quote. Never empty; quotes created
	// without an author are attributed to "Unknown".
	Author string

	// CreatedAt is when the quote was created.
	CreatedAt time.Time

	// Tags are categories or themes associated with the quote.
	Tags []string

	// Bookmarks is how many users have bookmarked this quote.
	Bookmarks int

	// Shares is how many times this quote has been shared.
	Shares int

	// Flags is how many times this quote has been reported.
	Flags int

	// OwnerID identifies the user who created the quote, when known.
	OwnerID string
}

// UnknownAuthor is the attribution for quotes submitted without one.
const UnknownAuthor = "Unknown"

// Draft is the caller-supplied material for a new quote.
type Draft struct {
	Text   string
	Author string
	Tags   []string
}

// Normalize fills draft defaults: a blank author becomes UnknownAuthor
// and nil tags become an empty slice so the wire form is [] rather than null.
func (d Draft) Normalize() Draft {
	if strings.TrimSpace(d.Author) == "" {
		d.Author = UnknownAuthor
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}

	return d
}

// Validate checks the business rules for quote creation.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return NewValidationError("text", "must not be empty")
	}

	return nil
}

// Matches reports whether the quote matches a case-insensitive substring
// query against its author, text, or any tag. An empty query matches
// every quote.
func (q Quote) Matches(query string) bool {
	if query == "" {
		return true
	}

	needle := strings.ToLower(query)
	if strings.Contains(strings.ToLower(q.Author), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(q.Text), needle) {
		return true
	}
	for _, tag := range q.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}

	return false
}

// SearchMode selects which upstream search variant a query runs against.
type SearchMode string

// Search modes accepted by the quote service.
const (
	// SearchByID looks a quote up by its identifier.
	SearchByID SearchMode = "id"

	// SearchByQuery performs a free-text search.
	SearchByQuery SearchMode = "query"
)

// Valid reports whether the mode is one the quote service understands.
func (m SearchMode) Valid() bool {
	return m == SearchByID || m == SearchByQuery
}
