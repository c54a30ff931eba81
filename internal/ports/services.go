// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrRequestFailed, etc.)
//   - Methods represent business operations, not CRUD operations
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/quotehub/quotehub/internal/domain"
)

// QuoteService is the contract for the upstream quote catalog.
//
// Reads and mutations fail differently on purpose. The feed reads
// (TopBookmarked, TopShared, Mine) degrade to an empty slice and a nil
// error when the upstream misbehaves, because a broken feed should render
// as an empty page rather than an error page. Every mutation surfaces a
// precise domain error so callers can report exactly what went wrong.
type QuoteService interface {
	// Search runs either an id lookup or a free-text search.
	// Returns domain.ErrValidation for an unknown mode.
	Search(ctx context.Context, mode domain.SearchMode, query string) ([]domain.Quote, error)

	// TopBookmarked returns the most-bookmarked quotes feed.
	TopBookmarked(ctx context.Context) ([]domain.Quote, error)

	// TopShared returns the most-shared quotes feed.
	TopShared(ctx context.Context) ([]domain.Quote, error)

	// ByUser returns the quotes authored by the given user. Degrades to
	// an empty slice like the top feeds.
	ByUser(ctx context.Context, userID string) ([]domain.Quote, error)

	// Create submits a new quote. The draft is normalized before it is
	// sent: blank authors become "Unknown" and nil tags become empty.
	Create(ctx context.Context, draft domain.Draft) (domain.Quote, error)

	// Update replaces an existing quote's content and returns the stored
	// record. A 2xx answer with an undecodable body is a malformed
	// response, not a success.
	Update(ctx context.Context, quote domain.Quote) (domain.Quote, error)

	// Delete removes a quote. Upstream may answer with a non-JSON body
	// on success; the client synthesizes a confirmation in that case.
	Delete(ctx context.Context, id string) (domain.Confirmation, error)

	// Report flags a quote for moderation.
	Report(ctx context.Context, id string) (domain.Confirmation, error)
}

// UserService is the contract for the upstream account service.
type UserService interface {
	// WhoAmI resolves the current session. A nil user with a nil error
	// means no one is signed in; the call never fails, it degrades.
	WhoAmI(ctx context.Context) (*domain.User, error)

	// Profile fetches a user's public profile by id.
	Profile(ctx context.Context, id string) (*domain.User, error)

	// Bookmark saves a quote to the signed-in user's bookmarks.
	Bookmark(ctx context.Context, quoteID string) error

	// RemoveBookmark removes a quote from the signed-in user's bookmarks.
	RemoveBookmark(ctx context.Context, quoteID string) error

	// LoginURL returns the browser-driven login redirect target.
	LoginURL() string

	// Logout revokes the current session upstream.
	Logout(ctx context.Context) error
}

// StateStore is the contract for durable local state that survives
// restarts: the login hint, the used-quotes collection, and one-shot
// alerts. Implementations serialize writers; concurrent MutateUsedQuotes
// calls must not lose updates.
type StateStore interface {
	// HasLoggedIn reports whether a session has ever been established.
	// A missing record reads as false.
	HasLoggedIn(ctx context.Context) (bool, error)

	// SetHasLoggedIn records that a session was established (or cleared).
	SetHasLoggedIn(ctx context.Context, v bool) error

	// UsedQuotes returns the recorded used-quote collection.
	// A missing or undecodable record reads as empty.
	UsedQuotes(ctx context.Context) ([]domain.UsedQuote, error)

	// MutateUsedQuotes applies fn to the stored collection and persists
	// the result as one atomic read-modify-write.
	MutateUsedQuotes(ctx context.Context, fn func([]domain.UsedQuote) []domain.UsedQuote) error

	// PutAlert stores a one-shot alert, replacing any pending one.
	PutAlert(ctx context.Context, alert domain.Alert) error

	// TakeAlert returns the pending alert and clears it in the same
	// operation. Returns nil when no alert is pending.
	TakeAlert(ctx context.Context) (*domain.Alert, error)

	// Close releases the underlying storage.
	Close() error
}
