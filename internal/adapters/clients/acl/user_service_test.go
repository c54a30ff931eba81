package acl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotehub/quotehub/internal/adapters/http/middleware"
	"github.com/quotehub/quotehub/internal/domain"
)

// setupUserAdapter creates a UserAdapter with a test HTTP server and
// cookie forwarding enabled, mirroring production wiring.
func setupUserAdapter(t *testing.T, handler http.HandlerFunc) *UserAdapter {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewUserAdapter(UserAdapterConfig{
		Client:   newTestClient(t, server.URL, UserServiceName, true),
		LoginURL: server.URL + "/users/auth/login",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// TestNewUserAdapter_PanicsWithoutClient verifies the nil-client guard.
func TestNewUserAdapter_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() {
		NewUserAdapter(UserAdapterConfig{Client: nil})
	})
}

// TestUserAdapter_WhoAmI verifies session resolution, the extended-JSON
// id flattening, and the admin integer translation.
func TestUserAdapter_WhoAmI(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/accounts/whoami", r.URL.Path)
		assert.Equal(t, "SessionId=s3cret", r.Header.Get("Cookie"))

		_, _ = w.Write([]byte(`{
			"_id": {"$oid": "67abf469b0d20a5237456444"},
			"Email": "coach@example.com",
			"Username": "coach",
			"admin": 1,
			"MyQuotes": ["q1", "q2"],
			"Profession": "NFL Head Coach",
			"PersonalQuote": "q1"
		}`))
	})
	adapter := setupUserAdapter(t, handler)

	ctx := middleware.ContextWithCookies(context.Background(), "SessionId=s3cret")
	user, err := adapter.WhoAmI(ctx)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "67abf469b0d20a5237456444", user.ID)
	assert.Equal(t, "coach@example.com", user.Email)
	assert.True(t, user.Admin)
	assert.Equal(t, []string{"q1", "q2"}, user.MyQuotes)
	assert.True(t, user.ProfileComplete())
}

// TestUserAdapter_WhoAmI_AnonymousOnRejection verifies that a 401 reads
// as anonymous rather than an error.
func TestUserAdapter_WhoAmI_AnonymousOnRejection(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "This endpoint requires authentication"}`))
	})
	adapter := setupUserAdapter(t, handler)

	user, err := adapter.WhoAmI(context.Background())

	require.NoError(t, err)
	assert.Nil(t, user)
}

// TestUserAdapter_WhoAmI_AnonymousOnTransportFailure verifies a dead
// upstream also reads as anonymous.
func TestUserAdapter_WhoAmI_AnonymousOnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	adapter := NewUserAdapter(UserAdapterConfig{
		Client: newTestClient(t, url, UserServiceName, true),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	user, err := adapter.WhoAmI(context.Background())

	require.NoError(t, err)
	assert.Nil(t, user)
}

// TestUserAdapter_WhoAmI_AnonymousOnGarbageBody verifies an undecodable
// success body degrades the same way.
func TestUserAdapter_WhoAmI_AnonymousOnGarbageBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	adapter := setupUserAdapter(t, handler)

	user, err := adapter.WhoAmI(context.Background())

	require.NoError(t, err)
	assert.Nil(t, user)
}

// TestUserAdapter_Profile verifies the profile lookup path and not-found
// mapping.
func TestUserAdapter_Profile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/search/id/u1" {
			_, _ = w.Write([]byte(`{"_id": "u1", "Email": "a@b.c", "Username": "ab"}`))

			return
		}

		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Account not found!"}`))
	})
	adapter := setupUserAdapter(t, handler)

	user, err := adapter.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ab", user.Username)
	assert.False(t, user.ProfileComplete())

	_, err = adapter.Profile(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

// TestUserAdapter_Bookmark verifies the bookmark endpoint, cookie
// forwarding, and the unauthenticated mapping.
func TestUserAdapter_Bookmark(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/bookmarks/q7", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		if r.Header.Get("Cookie") == "" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_, _ = w.Write([]byte(`{"message": "bookmarked"}`))
	})
	adapter := setupUserAdapter(t, handler)

	ctx := middleware.ContextWithCookies(context.Background(), "SessionId=s3cret")
	require.NoError(t, adapter.Bookmark(ctx, "q7"))

	err := adapter.Bookmark(context.Background(), "q7")
	require.Error(t, err)
	assert.True(t, domain.IsUnauthenticated(err))
}

// TestUserAdapter_RemoveBookmark verifies the delete-bookmark endpoint
// and the server detail on rejection.
func TestUserAdapter_RemoveBookmark(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/bookmarks/delete/q7", r.URL.Path)
		assert.Equal(t, http.MethodDelete, r.Method)

		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("Error removing bookmark"))
	})
	adapter := setupUserAdapter(t, handler)

	err := adapter.RemoveBookmark(context.Background(), "q7")

	require.Error(t, err)

	var reqErr *domain.RequestFailedError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusConflict, reqErr.Status)
	assert.Contains(t, reqErr.Detail, "removing bookmark")
}

// TestUserAdapter_Logout verifies the revocation endpoint.
func TestUserAdapter_Logout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/auth/jwt", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
	})
	adapter := setupUserAdapter(t, handler)

	assert.NoError(t, adapter.Logout(context.Background()))
}

// TestUserAdapter_LoginURL verifies the configured redirect target.
func TestUserAdapter_LoginURL(t *testing.T) {
	adapter := setupUserAdapter(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Contains(t, adapter.LoginURL(), "/users/auth/login")
}

// TestUserAdapter_HealthCheck verifies that an uncredentialed 401 still
// counts as healthy.
func TestUserAdapter_HealthCheck(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	adapter := setupUserAdapter(t, handler)

	assert.Equal(t, "user-service", adapter.Name())
	assert.NoError(t, adapter.Check(context.Background()))
}
