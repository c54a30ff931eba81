package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotehub/quotehub/internal/adapters/http/dto"
	"github.com/quotehub/quotehub/internal/adapters/http/handlers"
	"github.com/quotehub/quotehub/internal/app"
	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/platform/config"
	"github.com/quotehub/quotehub/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubQuoteService is a minimal ports.QuoteService for router wiring tests.
type stubQuoteService struct {
	quotes []domain.Quote
}

func (s *stubQuoteService) Search(ctx context.Context, mode domain.SearchMode, query string) ([]domain.Quote, error) {
	return s.quotes, nil
}

func (s *stubQuoteService) TopBookmarked(ctx context.Context) ([]domain.Quote, error) {
	return []domain.Quote{}, nil
}

func (s *stubQuoteService) TopShared(ctx context.Context) ([]domain.Quote, error) {
	return []domain.Quote{}, nil
}

func (s *stubQuoteService) ByUser(ctx context.Context, userID string) ([]domain.Quote, error) {
	return []domain.Quote{}, nil
}

func (s *stubQuoteService) Create(ctx context.Context, draft domain.Draft) (domain.Quote, error) {
	return domain.Quote{ID: "created", Text: draft.Text, Author: draft.Author}, nil
}

func (s *stubQuoteService) Update(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	return quote, nil
}

func (s *stubQuoteService) Delete(ctx context.Context, id string) (domain.Confirmation, error) {
	return domain.Confirmation{Message: "quote deleted"}, nil
}

func (s *stubQuoteService) Report(ctx context.Context, id string) (domain.Confirmation, error) {
	return domain.Confirmation{Message: "reported"}, nil
}

// stubUserService resolves every session as anonymous.
type stubUserService struct{}

func (s *stubUserService) WhoAmI(ctx context.Context) (*domain.User, error) { return nil, nil }

func (s *stubUserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.NewNotFoundError("user", id)
}

func (s *stubUserService) Bookmark(ctx context.Context, quoteID string) error { return nil }

func (s *stubUserService) RemoveBookmark(ctx context.Context, quoteID string) error { return nil }

func (s *stubUserService) LoginURL() string { return "http://localhost:9081/users/auth/login" }

func (s *stubUserService) Logout(ctx context.Context) error { return nil }

// stubStateStore is an in-memory ports.StateStore.
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

var (
	_ ports.QuoteService = (*stubQuoteService)(nil)
	_ ports.UserService  = (*stubUserService)(nil)
	_ ports.StateStore   = (*stubStateStore)(nil)
)

// newTestEngine wires a full router over stub upstreams.
func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()

	logger := testLogger()
	quotes := &stubQuoteService{}
	users := &stubUserService{}
	store := &stubStateStore{}

	session := app.NewSession(app.SessionConfig{Users: users, Store: store, Logger: logger})
	shelf := app.NewShelf()
	bookmarks := app.NewBookmarks(app.BookmarksConfig{Session: session, Users: users, Shelf: shelf, Logger: logger})
	usage := app.NewUsage(app.UsageConfig{Store: store, Logger: logger})
	library := app.NewLibrary(app.LibraryConfig{Quotes: quotes, Session: session, Logger: logger})

	registry := ports.NewHealthRegistry()
	healthHandler := handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "none", "now"))

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:         logger,
		ServiceName:    "quotehub-test",
		HealthHandler:  healthHandler,
		QuoteHandler:   handlers.NewQuoteHandler(library, bookmarks, usage, session),
		SessionHandler: handlers.NewSessionHandler(session),
		AlertHandler:   handlers.NewAlertHandler(store),
		Timeout:        5 * time.Second,
	})

	return engine
}

func doRequest(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
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

// TestSetupRouter_HealthRoutes verifies the internal probe endpoints.
func TestSetupRouter_HealthRoutes(t *testing.T) {
	engine := newTestEngine(t)

	for _, path := range []string{"/-/live", "/-/ready", "/-/build", "/-/metrics"} {
		t.Run(path, func(t *testing.T) {
			recorder := doRequest(engine, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, recorder.Code)
		})
	}
}

// TestSetupRouter_FeedsNeverFail verifies the top feeds answer 200 with an
// empty list even before anything exists upstream.
func TestSetupRouter_FeedsNeverFail(t *testing.T) {
	engine := newTestEngine(t)

	for _, path := range []string{"/api/v1/quotes/top/bookmarked", "/api/v1/quotes/top/shared"} {
		recorder := doRequest(engine, http.MethodGet, path, "")

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp handlers.QuoteListResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.NotNil(t, resp.Quotes)
		assert.Zero(t, resp.Count)
	}
}

// TestSetupRouter_SearchRequiresQuery verifies query validation happens
// before any upstream call.
func TestSetupRouter_SearchRequiresQuery(t *testing.T) {
	engine := newTestEngine(t)

	recorder := doRequest(engine, http.MethodGet, "/api/v1/quotes/search", "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeValidation, resp.Error.Code)
}

// TestSetupRouter_SessionIsAnonymous verifies session resolution over the
// stub user service.
func TestSetupRouter_SessionIsAnonymous(t *testing.T) {
	engine := newTestEngine(t)

	recorder := doRequest(engine, http.MethodGet, "/api/v1/session", "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp handlers.SessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "anonymous", resp.State)
	assert.Nil(t, resp.User)
}

// TestSetupRouter_BookmarkNeedsLogin verifies the 401 envelope carries the
// login URL for anonymous bookmark attempts.
func TestSetupRouter_BookmarkNeedsLogin(t *testing.T) {
	engine := newTestEngine(t)

	recorder := doRequest(engine, http.MethodPost, "/api/v1/quotes/q1/bookmark", "")

	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeUnauthenticated, resp.Error.Code)
	assert.Equal(t, "http://localhost:9081/users/auth/login", resp.Error.LoginURL)
}

// TestSetupRouter_LoginRedirects verifies the 302 to the user service.
func TestSetupRouter_LoginRedirects(t *testing.T) {
	engine := newTestEngine(t)

	recorder := doRequest(engine, http.MethodGet, "/api/v1/session/login", "")

	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "http://localhost:9081/users/auth/login", recorder.Header().Get("Location"))
}

// TestSetupRouter_FlashIsOneShot verifies read-then-delete semantics all
// the way through the HTTP surface.
func TestSetupRouter_FlashIsOneShot(t *testing.T) {
	logger := testLogger()
	store := &stubStateStore{alert: &domain.Alert{Type: domain.AlertSuccess, Message: "done"}}

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:       logger,
		ServiceName:  "quotehub-test",
		AlertHandler: handlers.NewAlertHandler(store),
	})

	first := doRequest(engine, http.MethodGet, "/api/v1/alerts/flash", "")
	require.Equal(t, http.StatusOK, first.Code)

	var alert handlers.AlertResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &alert))
	assert.Equal(t, "done", alert.Message)

	second := doRequest(engine, http.MethodGet, "/api/v1/alerts/flash", "")
	assert.Equal(t, http.StatusNoContent, second.Code)
}

// TestSetupRouter_UsedLedger round-trips a mark-used through HTTP.
func TestSetupRouter_UsedLedger(t *testing.T) {
	engine := newTestEngine(t)

	before := doRequest(engine, http.MethodGet, "/api/v1/quotes/q1/used", "")
	require.Equal(t, http.StatusOK, before.Code)

	var beforeResp struct {
		Used bool `json:"used"`
	}
	require.NoError(t, json.Unmarshal(before.Body.Bytes(), &beforeResp))
	assert.False(t, beforeResp.Used)

	mark := doRequest(engine, http.MethodPost, "/api/v1/quotes/q1/used", "")
	require.Equal(t, http.StatusOK, mark.Code)

	after := doRequest(engine, http.MethodGet, "/api/v1/quotes/q1/used", "")
	require.Equal(t, http.StatusOK, after.Code)

	var afterResp struct {
		Used bool `json:"used"`
	}
	require.NoError(t, json.Unmarshal(after.Body.Bytes(), &afterResp))
	assert.True(t, afterResp.Used)
}

// TestSetupMinimalRouter verifies the lightweight variant serves probes.
func TestSetupMinimalRouter(t *testing.T) {
	registry := ports.NewHealthRegistry()
	healthHandler := handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "none", "now"))

	engine := gin.New()
	SetupMinimalRouter(engine, testLogger(), healthHandler)

	recorder := doRequest(engine, http.MethodGet, "/-/live", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(engine, http.MethodGet, "/api/v1/quotes/search?q=x", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestServer_New verifies server construction from config.
func TestServer_New(t *testing.T) {
	cfg := &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           18080,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}

	server := New(cfg, testLogger())

	require.NotNil(t, server)
	assert.NotNil(t, server.Engine())
	assert.Equal(t, "127.0.0.1:18080", server.Addr())
	assert.Equal(t, cfg, server.Config())
}

// TestServer_StartAndShutdown exercises the lifecycle against a real port.
func TestServer_StartAndShutdown(t *testing.T) {
	cfg := &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}

	server := New(cfg, testLogger())
	errCh := server.Start()

	// Give ListenAndServe a moment to bind.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, server.Shutdown(ctx))

	err, open := <-errCh
	if open {
		assert.NoError(t, err)
	}
}

// TestServer_MaxBodySize verifies oversized bodies are rejected.
func TestServer_MaxBodySize(t *testing.T) {
	cfg := &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           18081,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 64,
	}

	server := New(cfg, testLogger())
	server.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"size": len(body)})
	})

	recorder := doRequest(server.Engine(), http.MethodPost, "/echo", strings.Repeat("x", 1024))

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
}
