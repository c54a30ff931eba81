package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/ports"
)

// HomeFeed is the landing-page content: the two top feeds fetched in
// parallel. Either list may be empty when its upstream is misbehaving.
type HomeFeed struct {
	TopBookmarked []domain.Quote
	TopShared     []domain.Quote
}

// LibraryConfig configures the quote library service.
type LibraryConfig struct {
	// Quotes is the upstream quote catalog.
	Quotes ports.QuoteService

	// Session scopes the authored-quotes view and gates mutations.
	Session *Session

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Library orchestrates browsing and authoring. Reads degrade (the
// adapters collapse broken feeds to empty collections); mutations check
// the session and surface precise errors.
type Library struct {
	quotes  ports.QuoteService
	session *Session
	logger  *slog.Logger
}

// NewLibrary creates the library service.
func NewLibrary(cfg LibraryConfig) *Library {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Library{
		quotes:  cfg.Quotes,
		session: cfg.Session,
		logger:  logger.With(slog.String("component", "app.Library")),
	}
}

// Home fetches the two top feeds concurrently.
func (l *Library) Home(ctx context.Context) (HomeFeed, error) {
	bookmarked, shared, err := Parallel2(ctx, l.quotes.TopBookmarked, l.quotes.TopShared)
	if err != nil {
		return HomeFeed{}, fmt.Errorf("fetching home feed: %w", err)
	}

	return HomeFeed{TopBookmarked: bookmarked, TopShared: shared}, nil
}

// TopBookmarked returns the most-bookmarked feed. Empty when the
// upstream is down.
func (l *Library) TopBookmarked(ctx context.Context) ([]domain.Quote, error) {
	return l.quotes.TopBookmarked(ctx)
}

// TopShared returns the most-shared feed. Empty when the upstream is down.
func (l *Library) TopShared(ctx context.Context) ([]domain.Quote, error) {
	return l.quotes.TopShared(ctx)
}

// Search runs an id lookup or a free-text search.
func (l *Library) Search(ctx context.Context, mode domain.SearchMode, query string) ([]domain.Quote, error) {
	return l.quotes.Search(ctx, mode, query)
}

// Mine returns the signed-in user's authored quotes, narrowed by an
// optional query. Anonymous callers get Unauthenticated.
func (l *Library) Mine(ctx context.Context, query string) ([]domain.Quote, error) {
	snapshot := l.session.Resolve(ctx)
	if snapshot.State != SessionAuthenticated {
		return nil, domain.NewUnauthenticatedError("list my quotes")
	}

	quotes, err := l.quotes.ByUser(ctx, snapshot.User.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching my quotes: %w", err)
	}

	return Filter(quotes, query), nil
}

// Create submits a new quote.
func (l *Library) Create(ctx context.Context, draft domain.Draft) (domain.Quote, error) {
	quote, err := l.quotes.Create(ctx, draft)
	if err != nil {
		return domain.Quote{}, err
	}

	l.logger.InfoContext(ctx, "quote created", slog.String("quote_id", quote.ID))

	return quote, nil
}

// Update replaces a quote's content. Only the author or an admin may
// update, mirroring the upstream rule so obvious rejections never leave
// the client.
func (l *Library) Update(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	const operation = "update quote"

	if err := l.authorize(ctx, operation, quote); err != nil {
		return domain.Quote{}, err
	}

	updated, err := l.quotes.Update(ctx, quote)
	if err != nil {
		return domain.Quote{}, err
	}

	l.logger.InfoContext(ctx, "quote updated", slog.String("quote_id", quote.ID))

	return updated, nil
}

// Delete removes a quote, subject to the same authorship rule as Update.
func (l *Library) Delete(ctx context.Context, id string) (domain.Confirmation, error) {
	const operation = "delete quote"

	if err := l.authorize(ctx, operation, domain.Quote{ID: id}); err != nil {
		return domain.Confirmation{}, err
	}

	conf, err := l.quotes.Delete(ctx, id)
	if err != nil {
		return domain.Confirmation{}, err
	}

	l.logger.InfoContext(ctx, "quote deleted", slog.String("quote_id", id))

	return conf, nil
}

// Report flags a quote for moderation. Reporting is open to everyone.
func (l *Library) Report(ctx context.Context, id string) (domain.Confirmation, error) {
	conf, err := l.quotes.Report(ctx, id)
	if err != nil {
		return domain.Confirmation{}, err
	}

	l.logger.InfoContext(ctx, "quote reported", slog.String("quote_id", id))

	return conf, nil
}

// authorize enforces the author-or-admin rule for destructive mutations.
func (l *Library) authorize(ctx context.Context, operation string, quote domain.Quote) error {
	snapshot := l.session.Resolve(ctx)
	if snapshot.State != SessionAuthenticated {
		return domain.NewUnauthenticatedError(operation)
	}

	if !snapshot.User.CanModify(quote) {
		return domain.NewForbiddenError(operation, "only the author or an admin may do this")
	}

	return nil
}
