package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quotehub/quotehub/internal/adapters/clients"
	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/platform/logging"
)

// QuoteServiceName is the upstream name used in errors and health checks.
const QuoteServiceName = "quote-service"

// QuoteAdapterConfig configures the quote service adapter.
type QuoteAdapterConfig struct {
	// Client is the HTTP client pointed at the quote service base URL.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger

	// Now supplies the creation timestamp for new quotes.
	// Defaults to time.Now; tests pin it.
	Now func() time.Time
}

// QuoteAdapter implements ports.QuoteService against the quote service's
// HTTP API.
type QuoteAdapter struct {
	BaseAdapter
	now func() time.Time
}

// NewQuoteAdapter creates a quote service adapter.
// Panics if Client is nil.
func NewQuoteAdapter(cfg QuoteAdapterConfig) *QuoteAdapter {
	if cfg.Client == nil {
		panic("QuoteAdapter: Client is required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &QuoteAdapter{
		BaseAdapter: NewBaseAdapter(cfg.Client, QuoteServiceName, cfg.Logger),
		now:         now,
	}
}

// quoteRecord is the quote service's wire model. Never exposed outside
// the ACL.
type quoteRecord struct {
	ID        objectID `json:"_id"`
	Text      string   `json:"quote"`
	Author    string   `json:"author"`
	Date      int64    `json:"date"`
	Tags      []string `json:"tags"`
	Bookmarks int      `json:"bookmarks"`
	Shares    int      `json:"shares"`
	Flags     int      `json:"flags"`
	Creator   objectID `json:"creator"`
}

// createQuoteRequest is the POST /quotes/create payload.
type createQuoteRequest struct {
	Text   string   `json:"quote"`
	Author string   `json:"author"`
	Date   int64    `json:"date"`
	Tags   []string `json:"tags"`
}

// updateQuoteRequest is the PUT /quotes/update payload. The id is
// required; counters ride along unchanged.
type updateQuoteRequest struct {
	ID     string   `json:"_id"`
	Text   string   `json:"quote"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

// reportQuoteRequest is the POST /quotes/report/id payload.
type reportQuoteRequest struct {
	QuoteID string `json:"quoteID"`
}

// confirmationResponse is the message-bearing body delete/report style
// endpoints answer with.
type confirmationResponse struct {
	Message string `json:"message"`
}

// toDomain translates a wire record to a domain quote.
func (r *quoteRecord) toDomain() domain.Quote {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.Quote{
		ID:        r.ID.String(),
		Text:      r.Text,
		Author:    r.Author,
		CreatedAt: time.Unix(r.Date, 0).UTC(),
		Tags:      tags,
		Bookmarks: r.Bookmarks,
		Shares:    r.Shares,
		Flags:     r.Flags,
		OwnerID:   r.Creator.String(),
	}
}

// Search runs an id lookup or a free-text search, per mode.
// Implements ports.QuoteService.
func (a *QuoteAdapter) Search(ctx context.Context, mode domain.SearchMode, query string) ([]domain.Quote, error) {
	if !mode.Valid() {
		return nil, domain.NewValidationError("mode", fmt.Sprintf("unknown search mode %q", mode))
	}

	const operation = "search quotes"
	path := "/quotes/search/query/" + url.PathEscape(query)
	if mode == domain.SearchByID {
		path = "/quotes/search/id/" + url.PathEscape(query)
	}

	a.Logger().DebugContext(ctx, "searching quotes",
		slog.String("mode", string(mode)),
		slog.String("query", query))

	body, err := a.Get(ctx, path, operation, query)
	if err != nil {
		return nil, err
	}

	return a.decodeQuoteCollection(body, operation)
}

// TopBookmarked returns the most-bookmarked feed, or an empty slice when
// the upstream misbehaves. Implements ports.QuoteService.
func (a *QuoteAdapter) TopBookmarked(ctx context.Context) ([]domain.Quote, error) {
	return a.feed(ctx, "/quotes/search/topBookmarked", "top bookmarked feed"), nil
}

// TopShared returns the most-shared feed, or an empty slice when the
// upstream misbehaves. Implements ports.QuoteService.
func (a *QuoteAdapter) TopShared(ctx context.Context) ([]domain.Quote, error) {
	return a.feed(ctx, "/quotes/search/topShared", "top shared feed"), nil
}

// ByUser returns the quotes authored by a user, or an empty slice when
// the upstream misbehaves. Implements ports.QuoteService.
func (a *QuoteAdapter) ByUser(ctx context.Context, userID string) ([]domain.Quote, error) {
	quotes := a.feed(ctx, "/quotes/search/user/"+url.PathEscape(userID), "quotes by user")
	for i := range quotes {
		// Older records predate the creator field.
		if quotes[i].OwnerID == "" {
			quotes[i].OwnerID = userID
		}
	}

	return quotes, nil
}

// feed fetches a read-path collection. Every failure mode (transport,
// status, decode) collapses to an empty slice; the error is logged at
// WARN so operators can still tell a broken feed from an empty one.
func (a *QuoteAdapter) feed(ctx context.Context, path, operation string) []domain.Quote {
	a.Logger().Log(ctx, logging.LevelTrace, "fetching feed", slog.String("path", path))

	body, err := a.Get(ctx, path, operation, "")
	if err != nil {
		a.Logger().WarnContext(ctx, "feed degraded to empty",
			slog.String("operation", operation),
			slog.Any("error", err))

		return []domain.Quote{}
	}

	quotes, err := a.decodeQuoteCollection(body, operation)
	if err != nil {
		a.Logger().WarnContext(ctx, "feed degraded to empty",
			slog.String("operation", operation),
			slog.Any("error", err))

		return []domain.Quote{}
	}

	return quotes
}

// Create submits a normalized draft and returns the stored quote.
// Implements ports.QuoteService.
func (a *QuoteAdapter) Create(ctx context.Context, draft domain.Draft) (domain.Quote, error) {
	const operation = "create quote"

	if err := draft.Validate(); err != nil {
		return domain.Quote{}, err
	}
	draft = draft.Normalize()

	payload, err := json.Marshal(createQuoteRequest{
		Text:   draft.Text,
		Author: draft.Author,
		Date:   a.now().Unix(),
		Tags:   draft.Tags,
	})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("encoding create request: %w", err)
	}

	a.Logger().DebugContext(ctx, "creating quote", slog.String("author", draft.Author))

	body, err := a.Post(ctx, "/quotes/create", bytes.NewReader(payload), operation, "")
	if err != nil {
		return domain.Quote{}, err
	}

	record, err := DecodeResponse[quoteRecord](body, a.ServiceName(), operation)
	if err != nil {
		return domain.Quote{}, err
	}

	return record.toDomain(), nil
}

// Update replaces a quote's content and returns the stored record.
// A success status with an undecodable body is a malformed response.
// Implements ports.QuoteService.
func (a *QuoteAdapter) Update(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	const operation = "update quote"

	if quote.ID == "" {
		return domain.Quote{}, domain.NewValidationError("id", "is required")
	}

	payload, err := json.Marshal(updateQuoteRequest{
		ID:     quote.ID,
		Text:   quote.Text,
		Author: quote.Author,
		Tags:   quote.Tags,
	})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("encoding update request: %w", err)
	}

	a.Logger().DebugContext(ctx, "updating quote", slog.String("quote_id", quote.ID))

	body, err := a.Put(ctx, "/quotes/update", bytes.NewReader(payload), operation, quote.ID)
	if err != nil {
		return domain.Quote{}, err
	}

	record, err := DecodeResponse[quoteRecord](body, a.ServiceName(), operation)
	if err != nil {
		return domain.Quote{}, err
	}

	return record.toDomain(), nil
}

// Delete removes a quote. The upstream answers deletes with a JSON
// confirmation when it feels like it and a bare body otherwise; a
// success status with no JSON synthesizes the confirmation instead of
// failing. Implements ports.QuoteService.
func (a *QuoteAdapter) Delete(ctx context.Context, id string) (domain.Confirmation, error) {
	const operation = "delete quote"

	if id == "" {
		return domain.Confirmation{}, domain.NewValidationError("id", "is required")
	}

	a.Logger().DebugContext(ctx, "deleting quote", slog.String("quote_id", id))

	resp, err := a.BaseAdapter.Delete(ctx, "/quotes/delete/"+url.PathEscape(id), operation, id)
	if err != nil {
		return domain.Confirmation{}, err
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		_ = resp.Body.Close()

		return domain.Confirmation{Message: "quote deleted"}, nil
	}

	conf, err := DecodeResponse[confirmationResponse](resp.Body, a.ServiceName(), operation)
	if err != nil {
		return domain.Confirmation{}, err
	}

	return domain.Confirmation{Message: conf.Message}, nil
}

// Report flags a quote for moderation. Implements ports.QuoteService.
func (a *QuoteAdapter) Report(ctx context.Context, id string) (domain.Confirmation, error) {
	const operation = "report quote"

	if id == "" {
		return domain.Confirmation{}, domain.NewValidationError("id", "is required")
	}

	payload, err := json.Marshal(reportQuoteRequest{QuoteID: id})
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("encoding report request: %w", err)
	}

	a.Logger().DebugContext(ctx, "reporting quote", slog.String("quote_id", id))

	body, err := a.Post(ctx, "/quotes/report/id", bytes.NewReader(payload), operation, id)
	if err != nil {
		return domain.Confirmation{}, err
	}

	conf, err := DecodeResponse[confirmationResponse](body, a.ServiceName(), operation)
	if err != nil {
		return domain.Confirmation{}, err
	}

	return domain.Confirmation{Message: conf.Message}, nil
}

// decodeQuoteCollection decodes a search result body. The id endpoint
// answers with a single record, the others with an array; both normalize
// to a collection.
func (a *QuoteAdapter) decodeQuoteCollection(body io.ReadCloser, operation string) ([]domain.Quote, error) {
	defer func() { _ = body.Close() }()

	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, domain.NewMalformedResponseError(a.ServiceName(), operation, err)
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var record quoteRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, domain.NewMalformedResponseError(a.ServiceName(), operation, err)
		}

		return []domain.Quote{record.toDomain()}, nil
	}

	var records []quoteRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, domain.NewMalformedResponseError(a.ServiceName(), operation, err)
	}

	return TranslateSlice(records, (*quoteRecord).toDomain), nil
}

// Name returns the health check name for this adapter.
// Implements ports.HealthChecker.
func (a *QuoteAdapter) Name() string {
	return QuoteServiceName
}

// Check verifies connectivity by fetching the top-bookmarked feed.
// Implements ports.HealthChecker.
func (a *QuoteAdapter) Check(ctx context.Context) error {
	resp, err := a.Client().Get(ctx, "/quotes/search/topBookmarked")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	return nil
}
