package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotehub/quotehub/internal/adapters/http/dto"
	"github.com/quotehub/quotehub/internal/app"
	"github.com/quotehub/quotehub/internal/domain"
)

// QuoteHandler exposes the quote library, the bookmark shelf, and the
// used-quote ledger over HTTP.
type QuoteHandler struct {
	library   *app.Library
	bookmarks *app.Bookmarks
	usage     *app.Usage
	session   *app.Session
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(library *app.Library, bookmarks *app.Bookmarks, usage *app.Usage, session *app.Session) *QuoteHandler {
	return &QuoteHandler{
		library:   library,
		bookmarks: bookmarks,
		usage:     usage,
		session:   session,
	}
}

// QuoteResponse is the HTTP shape of a quote.
type QuoteResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Tags      []string  `json:"tags"`
	Bookmarks int       `json:"bookmarks"`
	Shares    int       `json:"shares"`
	Flags     int       `json:"flags"`
	OwnerID   string    `json:"ownerId,omitempty"`
}

// QuoteListResponse wraps a quote collection.
type QuoteListResponse struct {
	Quotes []QuoteResponse `json:"quotes"`
	Count  int             `json:"count"`
}

// HomeFeedResponse is the landing-page payload: both top feeds.
type HomeFeedResponse struct {
	TopBookmarked []QuoteResponse `json:"topBookmarked"`
	TopShared     []QuoteResponse `json:"topShared"`
}

func toQuoteResponse(q domain.Quote) QuoteResponse {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}

	return QuoteResponse{
		ID:        q.ID,
		Text:      q.Text,
		Author:    q.Author,
		CreatedAt: q.CreatedAt,
		Tags:      tags,
		Bookmarks: q.Bookmarks,
		Shares:    q.Shares,
		Flags:     q.Flags,
		OwnerID:   q.OwnerID,
	}
}

func toQuoteListResponse(quotes []domain.Quote) QuoteListResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, toQuoteResponse(q))
	}

	return QuoteListResponse{Quotes: out, Count: len(out)}
}

// searchQuery is the query-string shape for GET /quotes/search.
type searchQuery struct {
	Q  string `form:"q"  json:"q"  validate:"required,notempty"`
	By string `form:"by" json:"by" validate:"omitempty,oneof=id text"`
}

// createQuoteRequest is the body for POST /quotes.
type createQuoteRequest struct {
	Text   string   `json:"text"   validate:"required,notempty"`
	Author string   `json:"author" validate:"omitempty,max=200"`
	Tags   []string `json:"tags"   validate:"omitempty,dive,notempty"`
}

// updateQuoteRequest is the body for PUT /quotes/:id.
type updateQuoteRequest struct {
	Text   string   `json:"text"   validate:"required,notempty"`
	Author string   `json:"author" validate:"omitempty,max=200"`
	Tags   []string `json:"tags"   validate:"omitempty,dive,notempty"`
}

// confirmationResponse is the HTTP shape of an upstream confirmation.
type confirmationResponse struct {
	Message string `json:"message"`
}

// Search handles GET /api/v1/quotes/search?q=&by=id|text.
// The by flag routes between an id lookup and a free-text search; text is
// the default.
func (h *QuoteHandler) Search(c *gin.Context) {
	var query searchQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		if dto.IsValidationError(err) {
			dto.HandleValidationErrors(c, dto.ValidationErrors(err))
			return
		}

		dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	mode := domain.SearchByQuery
	if query.By == "id" {
		mode = domain.SearchByID
	}

	quotes, err := h.library.Search(c.Request.Context(), mode, query.Q)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteListResponse(quotes))
}

// Home handles GET /api/v1/quotes/home, fetching both top feeds in one
// round trip.
func (h *QuoteHandler) Home(c *gin.Context) {
	feed, err := h.library.Home(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, HomeFeedResponse{
		TopBookmarked: toQuoteListResponse(feed.TopBookmarked).Quotes,
		TopShared:     toQuoteListResponse(feed.TopShared).Quotes,
	})
}

// TopBookmarked handles GET /api/v1/quotes/top/bookmarked. Upstream
// failures surface as an empty list, never a 5xx.
func (h *QuoteHandler) TopBookmarked(c *gin.Context) {
	quotes, err := h.library.TopBookmarked(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteListResponse(quotes))
}

// TopShared handles GET /api/v1/quotes/top/shared.
func (h *QuoteHandler) TopShared(c *gin.Context) {
	quotes, err := h.library.TopShared(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteListResponse(quotes))
}

// Mine handles GET /api/v1/quotes/mine?q=, the session-scoped authored
// quotes narrowed by an optional filter query.
func (h *QuoteHandler) Mine(c *gin.Context) {
	quotes, err := h.library.Mine(c.Request.Context(), c.Query("q"))
	if err != nil {
		dto.HandleError(c, err, dto.WithLogin(h.session.LoginURL()))
		return
	}

	c.JSON(http.StatusOK, toQuoteListResponse(quotes))
}

// Create handles POST /api/v1/quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req createQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		if dto.IsValidationError(err) {
			dto.HandleValidationErrors(c, dto.ValidationErrors(err))
			return
		}

		dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	quote, err := h.library.Create(c.Request.Context(), domain.Draft{
		Text:   req.Text,
		Author: req.Author,
		Tags:   req.Tags,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// Update handles PUT /api/v1/quotes/:id. Only the author or an admin may
// update; anonymous callers get 401 with the login URL.
func (h *QuoteHandler) Update(c *gin.Context) {
	var req updateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		if dto.IsValidationError(err) {
			dto.HandleValidationErrors(c, dto.ValidationErrors(err))
			return
		}

		dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	quote, err := h.library.Update(c.Request.Context(), domain.Quote{
		ID:     c.Param("id"),
		Text:   req.Text,
		Author: req.Author,
		Tags:   req.Tags,
	})
	if err != nil {
		dto.HandleError(c, err, dto.WithLogin(h.session.LoginURL()))
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// Delete handles DELETE /api/v1/quotes/:id.
func (h *QuoteHandler) Delete(c *gin.Context) {
	conf, err := h.library.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err, dto.WithLogin(h.session.LoginURL()))
		return
	}

	c.JSON(http.StatusOK, confirmationResponse{Message: conf.Message})
}

// Report handles POST /api/v1/quotes/:id/report. Open to everyone.
func (h *QuoteHandler) Report(c *gin.Context) {
	conf, err := h.library.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, confirmationResponse{Message: conf.Message})
}

// Bookmark handles POST /api/v1/quotes/:id/bookmark. The quote is fetched
// first so the shelf gets the full record; the shelf mutation rolls back if
// the user service rejects the call.
func (h *QuoteHandler) Bookmark(c *gin.Context) {
	id := c.Param("id")

	quotes, err := h.library.Search(c.Request.Context(), domain.SearchByID, id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	if len(quotes) == 0 {
		dto.HandleError(c, domain.NewNotFoundError("quote", id))
		return
	}

	err = h.bookmarks.Add(c.Request.Context(), quotes[0])
	if err != nil {
		dto.HandleError(c, err, dto.WithLogin(h.session.LoginURL()))
		return
	}

	c.JSON(http.StatusOK, confirmationResponse{Message: "quote bookmarked"})
}

// RemoveBookmark handles DELETE /api/v1/quotes/:id/bookmark.
func (h *QuoteHandler) RemoveBookmark(c *gin.Context) {
	err := h.bookmarks.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err, dto.WithLogin(h.session.LoginURL()))
		return
	}

	c.JSON(http.StatusOK, confirmationResponse{Message: "bookmark removed"})
}

// usedResponse is the HTTP shape of a used-quote ledger entry.
type usedResponse struct {
	QuoteID string     `json:"id"`
	Used    bool       `json:"used"`
	UsedOn  *time.Time `json:"usedDate,omitempty"`
}

// MarkUsed handles POST /api/v1/quotes/:id/used. Re-marking replaces the
// date rather than duplicating the entry.
func (h *QuoteHandler) MarkUsed(c *gin.Context) {
	entry, err := h.usage.MarkUsed(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, usedResponse{
		QuoteID: entry.QuoteID,
		Used:    true,
		UsedOn:  &entry.UsedOn,
	})
}

// UsedOn handles GET /api/v1/quotes/:id/used.
func (h *QuoteHandler) UsedOn(c *gin.Context) {
	id := c.Param("id")

	usedOn, err := h.usage.UsedOn(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, usedResponse{
		QuoteID: id,
		Used:    usedOn != nil,
		UsedOn:  usedOn,
	})
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("/search", h.Search)
	quotes.GET("/home", h.Home)
	quotes.GET("/top/bookmarked", h.TopBookmarked)
	quotes.GET("/top/shared", h.TopShared)
	quotes.GET("/mine", h.Mine)
	quotes.POST("", h.Create)
	quotes.PUT("/:id", h.Update)
	quotes.DELETE("/:id", h.Delete)
	quotes.POST("/:id/report", h.Report)
	quotes.POST("/:id/bookmark", h.Bookmark)
	quotes.DELETE("/:id/bookmark", h.RemoveBookmark)
	quotes.POST("/:id/used", h.MarkUsed)
	quotes.GET("/:id/used", h.UsedOn)
}
