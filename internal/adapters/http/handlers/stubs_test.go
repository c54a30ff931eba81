package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/quotehub/quotehub/internal/app"
	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/ports"
)

var (
	_ ports.QuoteService = (*stubQuoteService)(nil)
	_ ports.UserService  = (*stubUserService)(nil)
	_ ports.StateStore   = (*stubStateStore)(nil)
)

// stubQuoteService is a scriptable ports.QuoteService double.
type stubQuoteService struct {
	searchResult  []domain.Quote
	topBookmarked []domain.Quote
	topShared     []domain.Quote
	byUser        []domain.Quote

	searchErr error
	createErr error
	updateErr error
	deleteErr error
	reportErr error

	searchedMode  domain.SearchMode
	searchedQuery string
	deletedIDs    []string
	reportedIDs   []string
}

func (s *stubQuoteService) Search(ctx context.Context, mode domain.SearchMode, query string) ([]domain.Quote, error) {
	s.searchedMode = mode
	s.searchedQuery = query

	return s.searchResult, s.searchErr
}

func (s *stubQuoteService) TopBookmarked(ctx context.Context) ([]domain.Quote, error) {
	if s.topBookmarked == nil {
		return []domain.Quote{}, nil
	}

	return s.topBookmarked, nil
}

func (s *stubQuoteService) TopShared(ctx context.Context) ([]domain.Quote, error) {
	if s.topShared == nil {
		return []domain.Quote{}, nil
	}

	return s.topShared, nil
}

func (s *stubQuoteService) ByUser(ctx context.Context, userID string) ([]domain.Quote, error) {
	if s.byUser == nil {
		return []domain.Quote{}, nil
	}

	return s.byUser, nil
}

func (s *stubQuoteService) Create(ctx context.Context, draft domain.Draft) (domain.Quote, error) {
	if s.createErr != nil {
		return domain.Quote{}, s.createErr
	}

	normalized := draft.Normalize()

	return domain.Quote{
		ID:     "created",
		Text:   normalized.Text,
		Author: normalized.Author,
		Tags:   normalized.Tags,
	}, nil
}

func (s *stubQuoteService) Update(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	if s.updateErr != nil {
		return domain.Quote{}, s.updateErr
	}

	return quote, nil
}

func (s *stubQuoteService) Delete(ctx context.Context, id string) (domain.Confirmation, error) {
	if s.deleteErr != nil {
		return domain.Confirmation{}, s.deleteErr
	}

	s.deletedIDs = append(s.deletedIDs, id)

	return domain.Confirmation{Message: "quote deleted"}, nil
}

func (s *stubQuoteService) Report(ctx context.Context, id string) (domain.Confirmation, error) {
	if s.reportErr != nil {
		return domain.Confirmation{}, s.reportErr
	}

	s.reportedIDs = append(s.reportedIDs, id)

	return domain.Confirmation{Message: "reported"}, nil
}

// stubUserService resolves the session to a fixed user (nil = anonymous).
type stubUserService struct {
	user *domain.User

	bookmarkErr error
	removeErr   error
	logoutErr   error

	bookmarked []string
	removed    []string
}

func (s *stubUserService) WhoAmI(ctx context.Context) (*domain.User, error) { return s.user, nil }

func (s *stubUserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}

	return nil, domain.NewNotFoundError("user", id)
}

func (s *stubUserService) Bookmark(ctx context.Context, quoteID string) error {
	if s.bookmarkErr != nil {
		return s.bookmarkErr
	}

	s.bookmarked = append(s.bookmarked, quoteID)

	return nil
}

func (s *stubUserService) RemoveBookmark(ctx context.Context, quoteID string) error {
	if s.removeErr != nil {
		return s.removeErr
	}

	s.removed = append(s.removed, quoteID)

	return nil
}

func (s *stubUserService) LoginURL() string { return "http://localhost:9081/users/auth/login" }

func (s *stubUserService) Logout(ctx context.Context) error { return s.logoutErr }

// stubStateStore is an in-memory ports.StateStore double.
type stubStateStore struct {
	loggedIn bool
	used     []domain.UsedQuote
	alert    *domain.Alert
}

func (s *stubStateStore) HasLoggedIn(ctx context.Context) (bool, error) { return s.loggedIn, nil }

func (s *stubStateStore) SetHasLoggedIn(ctx context.Context, v bool) error {
	s.loggedIn = v
	return nil
}

func (s *stubStateStore) UsedQuotes(ctx context.Context) ([]domain.UsedQuote, error) {
	return s.used, nil
}

func (s *stubStateStore) MutateUsedQuotes(ctx context.Context, fn func([]domain.UsedQuote) []domain.UsedQuote) error {
	s.used = fn(s.used)
	return nil
}

func (s *stubStateStore) PutAlert(ctx context.Context, alert domain.Alert) error {
	s.alert = &alert
	return nil
}

func (s *stubStateStore) TakeAlert(ctx context.Context) (*domain.Alert, error) {
	alert := s.alert
	s.alert = nil

	return alert, nil
}

func (s *stubStateStore) Close() error { return nil }

// handlerFixture bundles the app services a handler test needs.
type handlerFixture struct {
	quotes *stubQuoteService
	users  *stubUserService
	store  *stubStateStore

	session   *app.Session
	shelf     *app.Shelf
	bookmarks *app.Bookmarks
	usage     *app.Usage
	library   *app.Library
}

func newHandlerFixture(user *domain.User) *handlerFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	quotes := &stubQuoteService{}
	users := &stubUserService{user: user}
	store := &stubStateStore{}

	session := app.NewSession(app.SessionConfig{Users: users, Store: store, Logger: logger})
	shelf := app.NewShelf()
	bookmarks := app.NewBookmarks(app.BookmarksConfig{Session: session, Users: users, Shelf: shelf, Logger: logger})
	usage := app.NewUsage(app.UsageConfig{Store: store, Logger: logger})
	library := app.NewLibrary(app.LibraryConfig{Quotes: quotes, Session: session, Logger: logger})

	return &handlerFixture{
		quotes:    quotes,
		users:     users,
		store:     store,
		session:   session,
		shelf:     shelf,
		bookmarks: bookmarks,
		usage:     usage,
		library:   library,
	}
}

// engine mounts the quote, session, and alert handlers on a fresh router.
func (f *handlerFixture) engine(t *testing.T) *gin.Engine {
	t.Helper()

	engine := gin.New()
	group := engine.Group("/api/v1")

	NewQuoteHandler(f.library, f.bookmarks, f.usage, f.session).RegisterQuoteRoutes(group)
	NewSessionHandler(f.session).RegisterSessionRoutes(group)
	NewAlertHandler(f.store).RegisterAlertRoutes(group)

	return engine
}

func perform(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	return recorder
}
