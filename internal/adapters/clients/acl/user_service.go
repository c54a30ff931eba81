package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/quotehub/quotehub/internal/adapters/clients"
	"github.com/quotehub/quotehub/internal/domain"
)

// UserServiceName is the upstream name used in errors and health checks.
const UserServiceName = "user-service"

// UserAdapterConfig configures the user service adapter.
type UserAdapterConfig struct {
	// Client is the HTTP client pointed at the user service base URL.
	// It must be created with ForwardCookies so session-scoped calls
	// carry the caller's cookies upstream.
	Client *clients.Client

	// LoginURL is the browser-driven login redirect target,
	// e.g. "http://localhost:9081/users/auth/login".
	LoginURL string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// UserAdapter implements ports.UserService against the user service's
// HTTP API. Session-scoped operations (WhoAmI, Bookmark, RemoveBookmark,
// Logout) rely on cookie forwarding; the user service resolves the
// account from the SessionId cookie, never from the request body.
type UserAdapter struct {
	BaseAdapter
	loginURL string
}

// NewUserAdapter creates a user service adapter.
// Panics if Client is nil.
func NewUserAdapter(cfg UserAdapterConfig) *UserAdapter {
	if cfg.Client == nil {
		panic("UserAdapter: Client is required")
	}

	return &UserAdapter{
		BaseAdapter: NewBaseAdapter(cfg.Client, UserServiceName, cfg.Logger),
		loginURL:    cfg.LoginURL,
	}
}

// accountRecord is the user service's wire model: Mongo extended JSON
// with the upstream's mixed-case field names. Never exposed outside the
// ACL.
type accountRecord struct {
	ID            objectID `json:"_id"`
	Email         string   `json:"Email"`
	Username      string   `json:"Username"`
	Profession    string   `json:"Profession"`
	PersonalQuote string   `json:"PersonalQuote"`
	MyQuotes      []string `json:"MyQuotes"`
	Admin         int      `json:"admin"`
}

// toDomain translates a wire record to a domain user.
func (r *accountRecord) toDomain() *domain.User {
	myQuotes := r.MyQuotes
	if myQuotes == nil {
		myQuotes = []string{}
	}

	return &domain.User{
		ID:            r.ID.String(),
		Email:         r.Email,
		Username:      r.Username,
		Profession:    r.Profession,
		PersonalQuote: r.PersonalQuote,
		MyQuotes:      myQuotes,
		Admin:         r.Admin == 1,
	}
}

// WhoAmI resolves the session behind the forwarded cookies. Any failure
// (no cookie, expired session, transport trouble, undecodable body) reads
// as anonymous: a nil user with a nil error. Implements ports.UserService.
func (a *UserAdapter) WhoAmI(ctx context.Context) (*domain.User, error) {
	const operation = "whoami"

	body, err := a.Get(ctx, "/users/accounts/whoami", operation, "")
	if err != nil {
		a.Logger().DebugContext(ctx, "whoami resolved anonymous", slog.Any("error", err))

		return nil, nil
	}

	record, err := DecodeResponse[accountRecord](body, a.ServiceName(), operation)
	if err != nil {
		a.Logger().WarnContext(ctx, "whoami body undecodable, treating as anonymous",
			slog.Any("error", err))

		return nil, nil
	}

	return record.toDomain(), nil
}

// Profile fetches a user's public profile by id.
// Implements ports.UserService.
func (a *UserAdapter) Profile(ctx context.Context, id string) (*domain.User, error) {
	const operation = "get profile"

	if id == "" {
		return nil, domain.NewValidationError("id", "is required")
	}

	body, err := a.Get(ctx, "/users/search/id/"+url.PathEscape(id), operation, id)
	if err != nil {
		return nil, err
	}

	record, err := DecodeResponse[accountRecord](body, a.ServiceName(), operation)
	if err != nil {
		return nil, err
	}

	return record.toDomain(), nil
}

// Bookmark saves a quote to the signed-in user's bookmarks.
// Implements ports.UserService.
func (a *UserAdapter) Bookmark(ctx context.Context, quoteID string) error {
	const operation = "bookmark quote"

	if quoteID == "" {
		return domain.NewValidationError("quoteID", "is required")
	}

	a.Logger().DebugContext(ctx, "bookmarking quote", slog.String("quote_id", quoteID))

	body, err := a.Post(ctx, "/users/bookmarks/"+url.PathEscape(quoteID), http.NoBody, operation, quoteID)
	if err != nil {
		return err
	}
	_ = body.Close()

	return nil
}

// RemoveBookmark removes a quote from the signed-in user's bookmarks.
// Implements ports.UserService.
func (a *UserAdapter) RemoveBookmark(ctx context.Context, quoteID string) error {
	const operation = "remove bookmark"

	if quoteID == "" {
		return domain.NewValidationError("quoteID", "is required")
	}

	a.Logger().DebugContext(ctx, "removing bookmark", slog.String("quote_id", quoteID))

	resp, err := a.BaseAdapter.Delete(ctx, "/users/bookmarks/delete/"+url.PathEscape(quoteID), operation, quoteID)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	return nil
}

// LoginURL returns the browser-driven login redirect target.
// Implements ports.UserService.
func (a *UserAdapter) LoginURL() string {
	return a.loginURL
}

// Logout revokes the session behind the forwarded cookies.
// Implements ports.UserService.
func (a *UserAdapter) Logout(ctx context.Context) error {
	const operation = "logout"

	body, err := a.Post(ctx, "/users/auth/jwt", http.NoBody, operation, "")
	if err != nil {
		return err
	}
	_ = body.Close()

	return nil
}

// Name returns the health check name for this adapter.
// Implements ports.HealthChecker.
func (a *UserAdapter) Name() string {
	return UserServiceName
}

// Check verifies connectivity. whoami answers 401 for an uncredentialed
// probe, which still proves the service is up.
// Implements ports.HealthChecker.
func (a *UserAdapter) Check(ctx context.Context) error {
	resp, err := a.Client().Get(ctx, "/users/accounts/whoami")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	return nil
}
