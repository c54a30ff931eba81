// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// Application Layer Responsibilities:
//   - Orchestrate use cases (browsing, authoring, bookmarking, session)
//   - Coordinate between domain and infrastructure
//   - Handle cross-cutting concerns (logging)
//   - Enforce business rules that span multiple entities
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters)
//   - Upstream wire formats (that's the ACL)
//   - Core domain logic (that's the domain layer)
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/ports"
)

// SessionState is the resolution state of the current session.
type SessionState int

// Session states. A session starts Unresolved and settles into exactly
// one of Anonymous or Authenticated; it never returns to Unresolved.
const (
	SessionUnresolved SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unresolved"
	}
}

// Snapshot is a point-in-time view of the session. User is non-nil only
// when State is SessionAuthenticated.
type Snapshot struct {
	State SessionState
	User  *domain.User
}

// subscriberBuffer is how many transitions a subscriber may lag before
// delivery blocks.
const subscriberBuffer = 8

// SessionConfig configures the session service.
type SessionConfig struct {
	// Users resolves and revokes sessions upstream.
	Users ports.UserService

	// Store persists the login hint and the logout alert.
	Store ports.StateStore

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Session tracks who is signed in. Resolution happens through WhoAmI on
// the user service; concurrent resolutions coalesce into a single
// in-flight call. Subscribers observe transitions in the order they
// subscribed, delivered one at a time.
type Session struct {
	users  ports.UserService
	store  ports.StateStore
	logger *slog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	state SessionState
	user  *domain.User

	deliverMu sync.Mutex
	subs      []chan Snapshot
}

// NewSession creates a session service starting in the unresolved state.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		users:  cfg.Users,
		store:  cfg.Store,
		logger: logger.With(slog.String("component", "app.Session")),
		state:  SessionUnresolved,
	}
}

// Current returns a synchronous snapshot without triggering resolution.
func (s *Session) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{State: s.state, User: s.user}
}

// Subscribe registers for transition notifications. Transitions are
// delivered in subscription order; a subscriber that stops draining its
// channel eventually blocks delivery for everyone, so consume promptly.
// The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	s.deliverMu.Lock()
	s.subs = append(s.subs, ch)
	s.deliverMu.Unlock()

	unsubscribe := func() {
		s.deliverMu.Lock()
		defer s.deliverMu.Unlock()

		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)

				return
			}
		}
	}

	return ch, unsubscribe
}

// Resolve returns the current snapshot, performing the initial WhoAmI if
// the session is still unresolved. Concurrent callers share one upstream
// call.
func (s *Session) Resolve(ctx context.Context) Snapshot {
	if s.Current().State != SessionUnresolved {
		return s.Current()
	}

	return s.Refresh(ctx)
}

// Refresh re-checks the session upstream regardless of current state.
// It never resolves back to Unresolved: a failed or anonymous WhoAmI
// reads as Anonymous. Refresh never happens automatically; callers
// invoke it after flows that may have changed the account (login
// callback, profile setup).
func (s *Session) Refresh(ctx context.Context) Snapshot {
	result, _, _ := s.group.Do("whoami", func() (any, error) {
		// WhoAmI degrades to (nil, nil); the error is always nil.
		user, _ := s.users.WhoAmI(ctx)

		state := SessionAnonymous
		if user != nil {
			state = SessionAuthenticated
		}

		snapshot := s.transition(ctx, state, user)

		if state == SessionAuthenticated && s.store != nil {
			if err := s.store.SetHasLoggedIn(ctx, true); err != nil {
				s.logger.WarnContext(ctx, "recording login hint failed", slog.Any("error", err))
			}
		}

		return snapshot, nil
	})

	snapshot, _ := result.(Snapshot)

	return snapshot
}

// Logout revokes the session upstream, clears the login hint, stashes a
// one-shot alert for the next page load, and transitions to Anonymous.
func (s *Session) Logout(ctx context.Context) error {
	if s.Current().State != SessionAuthenticated {
		return domain.NewUnauthenticatedError("logout")
	}

	if err := s.users.Logout(ctx); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	if s.store != nil {
		if err := s.store.SetHasLoggedIn(ctx, false); err != nil {
			s.logger.WarnContext(ctx, "clearing login hint failed", slog.Any("error", err))
		}

		alert := domain.Alert{Type: domain.AlertSuccess, Message: "You have been signed out."}
		if err := s.store.PutAlert(ctx, alert); err != nil {
			s.logger.WarnContext(ctx, "stashing logout alert failed", slog.Any("error", err))
		}
	}

	s.transition(ctx, SessionAnonymous, nil)
	s.logger.InfoContext(ctx, "session revoked")

	return nil
}

// LoginURL returns the browser-driven login redirect target.
func (s *Session) LoginURL() string {
	return s.users.LoginURL()
}

// HasEverLoggedIn reports the persisted login hint, which drives the
// first-run experience.
func (s *Session) HasEverLoggedIn(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	return s.store.HasLoggedIn(ctx)
}

// transition records the new state and notifies subscribers when the
// snapshot actually changed. Returns the resulting snapshot.
func (s *Session) transition(ctx context.Context, state SessionState, user *domain.User) Snapshot {
	s.mu.Lock()
	changed := s.state != state || !sameUser(s.user, user)
	s.state = state
	s.user = user
	s.mu.Unlock()

	snapshot := Snapshot{State: state, User: user}

	if changed {
		s.logger.DebugContext(ctx, "session transition", slog.String("state", state.String()))
		s.notify(snapshot)
	}

	return snapshot
}

// notify delivers a snapshot to every subscriber in order, one at a time.
func (s *Session) notify(snapshot Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	for _, ch := range s.subs {
		ch <- snapshot
	}
}

// sameUser compares the fields a transition cares about.
func sameUser(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.ID == b.ID &&
		a.Username == b.Username &&
		a.Profession == b.Profession &&
		a.PersonalQuote == b.PersonalQuote &&
		a.Admin == b.Admin &&
		slices.Equal(a.MyQuotes, b.MyQuotes)
}
