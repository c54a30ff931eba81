package app

import (
	"context"
	"errors"
	"sync"

	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/ports"
)

// Interface conformance for the test doubles.
var (
	_ ports.UserService  = (*fakeUserService)(nil)
	_ ports.QuoteService = (*fakeQuoteService)(nil)
	_ ports.StateStore   = (*fakeStateStore)(nil)
)

// fakeUserService is a hand-rolled ports.UserService double.
type fakeUserService struct {
	mu sync.Mutex

	user     *domain.User
	loginURL string

	bookmarkErr error
	removeErr   error
	logoutErr   error

	whoAmICalls   int
	bookmarked    []string
	removed       []string
	logoutCalls   int
	whoAmIStarted chan struct{}
	whoAmIRelease chan struct{}
}

func (f *fakeUserService) WhoAmI(ctx context.Context) (*domain.User, error) {
	f.mu.Lock()
	f.whoAmICalls++
	started := f.whoAmIStarted
	release := f.whoAmIRelease
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.user, nil
}

func (f *fakeUserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}

	return nil, domain.NewNotFoundError("user", id)
}

func (f *fakeUserService) Bookmark(ctx context.Context, quoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bookmarkErr != nil {
		return f.bookmarkErr
	}

	f.bookmarked = append(f.bookmarked, quoteID)

	return nil
}

func (f *fakeUserService) RemoveBookmark(ctx context.Context, quoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return f.removeErr
	}

	f.removed = append(f.removed, quoteID)

	return nil
}

func (f *fakeUserService) LoginURL() string {
	return f.loginURL
}

func (f *fakeUserService) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logoutCalls++

	return f.logoutErr
}

// fakeQuoteService is a hand-rolled ports.QuoteService double.
type fakeQuoteService struct {
	mu sync.Mutex

	searchResult []domain.Quote
	topBookmarked []domain.Quote
	topShared    []domain.Quote
	byUser       map[string][]domain.Quote

	searchErr error
	createErr error
	updateErr error
	deleteErr error
	reportErr error

	searchedMode  domain.SearchMode
	searchedQuery string
	createdDrafts []domain.Draft
	updatedQuotes []domain.Quote
	deletedIDs    []string
	reportedIDs   []string
}

func (f *fakeQuoteService) Search(ctx context.Context, mode domain.SearchMode, query string) ([]domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searchedMode = mode
	f.searchedQuery = query

	return f.searchResult, f.searchErr
}

func (f *fakeQuoteService) TopBookmarked(ctx context.Context) ([]domain.Quote, error) {
	return f.topBookmarked, nil
}

func (f *fakeQuoteService) TopShared(ctx context.Context) ([]domain.Quote, error) {
	return f.topShared, nil
}

func (f *fakeQuoteService) ByUser(ctx context.Context, userID string) ([]domain.Quote, error) {
	if quotes, ok := f.byUser[userID]; ok {
		return quotes, nil
	}

	return []domain.Quote{}, nil
}

func (f *fakeQuoteService) Create(ctx context.Context, draft domain.Draft) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.Quote{}, f.createErr
	}

	f.createdDrafts = append(f.createdDrafts, draft)

	return domain.Quote{ID: "created", Text: draft.Text, Author: draft.Author, Tags: draft.Tags}, nil
}

func (f *fakeQuoteService) Update(ctx context.Context, quote domain.Quote) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return domain.Quote{}, f.updateErr
	}

	f.updatedQuotes = append(f.updatedQuotes, quote)

	return quote, nil
}

func (f *fakeQuoteService) Delete(ctx context.Context, id string) (domain.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return domain.Confirmation{}, f.deleteErr
	}

	f.deletedIDs = append(f.deletedIDs, id)

	return domain.Confirmation{Message: "quote deleted"}, nil
}

func (f *fakeQuoteService) Report(ctx context.Context, id string) (domain.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reportErr != nil {
		return domain.Confirmation{}, f.reportErr
	}

	f.reportedIDs = append(f.reportedIDs, id)

	return domain.Confirmation{Message: "reported"}, nil
}

// fakeStateStore is a hand-rolled in-memory ports.StateStore double.
type fakeStateStore struct {
	mu sync.Mutex

	loggedIn bool
	used     []domain.UsedQuote
	alert    *domain.Alert

	failMutate bool
}

var errMutateFailed = errors.New("mutate failed")

func (f *fakeStateStore) HasLoggedIn(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.loggedIn, nil
}

func (f *fakeStateStore) SetHasLoggedIn(ctx context.Context, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loggedIn = v

	return nil
}

func (f *fakeStateStore) UsedQuotes(ctx context.Context) ([]domain.UsedQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.UsedQuote, len(f.used))
	copy(out, f.used)

	return out, nil
}

func (f *fakeStateStore) MutateUsedQuotes(ctx context.Context, fn func([]domain.UsedQuote) []domain.UsedQuote) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failMutate {
		return errMutateFailed
	}

	f.used = fn(f.used)

	return nil
}

func (f *fakeStateStore) PutAlert(ctx context.Context, alert domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.alert = &alert

	return nil
}

func (f *fakeStateStore) TakeAlert(ctx context.Context) (*domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	alert := f.alert
	f.alert = nil

	return alert, nil
}

func (f *fakeStateStore) Close() error { return nil }
