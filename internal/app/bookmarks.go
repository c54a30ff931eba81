package app

import (
	"context"
	"log/slog"

	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/ports"
)

// BookmarksConfig configures the bookmark toggle.
type BookmarksConfig struct {
	// Session gates bookmarking on an authenticated user.
	Session *Session

	// Users performs the credentialed bookmark calls.
	Users ports.UserService

	// Shelf is the displayed saved-quotes collection the toggle mutates
	// optimistically.
	Shelf *Shelf

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Bookmarks is the bookmark toggle. Every mutation requires an
// authenticated session - an anonymous toggle returns Unauthenticated so
// the caller can prompt for login, and no network call is made. The
// shelf mutation is applied optimistically and rolled back when the user
// service rejects the change.
type Bookmarks struct {
	session *Session
	users   ports.UserService
	shelf   *Shelf
	logger  *slog.Logger
}

// NewBookmarks creates the bookmark toggle service.
func NewBookmarks(cfg BookmarksConfig) *Bookmarks {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bookmarks{
		session: cfg.Session,
		users:   cfg.Users,
		shelf:   cfg.Shelf,
		logger:  logger.With(slog.String("component", "app.Bookmarks")),
	}
}

// Shelf returns the collection the toggle operates on.
func (b *Bookmarks) Shelf() *Shelf {
	return b.shelf
}

// Add bookmarks a quote: shelve it, then persist upstream, unshelving
// on failure.
func (b *Bookmarks) Add(ctx context.Context, quote domain.Quote) error {
	const operation = "bookmark quote"

	if b.session.Current().State != SessionAuthenticated {
		return domain.NewUnauthenticatedError(operation)
	}

	var added bool

	action := StagedAction{
		Name:   operation,
		Apply:  func() { added = b.shelf.Add(quote) },
		Revert: func() {
			if added {
				b.shelf.Remove(quote.ID)
			}
		},
		Call: func(ctx context.Context) error { return b.users.Bookmark(ctx, quote.ID) },
	}

	if err := action.Run(ctx, b.logger); err != nil {
		return err
	}

	b.logger.DebugContext(ctx, "quote bookmarked", slog.String("quote_id", quote.ID))

	return nil
}

// Remove drops a bookmark: unshelve the quote, then persist upstream,
// restoring it at its old position on failure.
func (b *Bookmarks) Remove(ctx context.Context, quoteID string) error {
	const operation = "remove bookmark"

	if b.session.Current().State != SessionAuthenticated {
		return domain.NewUnauthenticatedError(operation)
	}

	var (
		removed  domain.Quote
		position int
		ok       bool
	)

	action := StagedAction{
		Name:  operation,
		Apply: func() { removed, position, ok = b.shelf.Remove(quoteID) },
		Revert: func() {
			if ok {
				b.shelf.Insert(position, removed)
			}
		},
		Call: func(ctx context.Context) error { return b.users.RemoveBookmark(ctx, quoteID) },
	}

	if err := action.Run(ctx, b.logger); err != nil {
		return err
	}

	b.logger.DebugContext(ctx, "bookmark removed", slog.String("quote_id", quoteID))

	return nil
}

// Toggle flips a quote's bookmarked state and reports whether it ended
// up bookmarked.
func (b *Bookmarks) Toggle(ctx context.Context, quote domain.Quote) (bool, error) {
	if b.shelf.Has(quote.ID) {
		if err := b.Remove(ctx, quote.ID); err != nil {
			return true, err
		}

		return false, nil
	}

	if err := b.Add(ctx, quote); err != nil {
		return false, err
	}

	return true, nil
}
