package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/ports"
)

// UsageConfig configures the used-quotes ledger service.
type UsageConfig struct {
	// Store persists the ledger.
	Store ports.StateStore

	// Logger is the structured logger.
	Logger *slog.Logger

	// Now supplies the mark timestamp. Defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Usage is the used-quotes ledger: a purely client-side record of when a
// quote was last used. Marking never touches the network; re-marking
// replaces the date and never duplicates an entry. Entries are never
// pruned.
type Usage struct {
	store  ports.StateStore
	logger *slog.Logger
	now    func() time.Time
}

// NewUsage creates the ledger service.
func NewUsage(cfg UsageConfig) *Usage {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Usage{
		store:  cfg.Store,
		logger: logger.With(slog.String("component", "app.Usage")),
		now:    now,
	}
}

// MarkUsed records that a quote was used now, replacing any earlier mark.
func (u *Usage) MarkUsed(ctx context.Context, quoteID string) (domain.UsedQuote, error) {
	if quoteID == "" {
		return domain.UsedQuote{}, domain.NewValidationError("quoteID", "is required")
	}

	entry := domain.UsedQuote{QuoteID: quoteID, UsedOn: u.now().UTC()}

	err := u.store.MutateUsedQuotes(ctx, func(used []domain.UsedQuote) []domain.UsedQuote {
		for i := range used {
			if used[i].QuoteID == quoteID {
				used[i].UsedOn = entry.UsedOn

				return used
			}
		}

		return append(used, entry)
	})
	if err != nil {
		return domain.UsedQuote{}, fmt.Errorf("marking quote used: %w", err)
	}

	u.logger.DebugContext(ctx, "quote marked used", slog.String("quote_id", quoteID))

	return entry, nil
}

// UsedOn returns when a quote was last used, or nil if it never was.
func (u *Usage) UsedOn(ctx context.Context, quoteID string) (*time.Time, error) {
	used, err := u.store.UsedQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading used-quotes ledger: %w", err)
	}

	if when, ok := domain.LastUsed(used, quoteID); ok {
		return &when, nil
	}

	return nil, nil //nolint:nilnil // an unused quote is not an error
}

// All returns the whole ledger.
func (u *Usage) All(ctx context.Context) ([]domain.UsedQuote, error) {
	used, err := u.store.UsedQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading used-quotes ledger: %w", err)
	}

	return used, nil
}
