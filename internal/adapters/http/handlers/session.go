package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotehub/quotehub/internal/adapters/http/dto"
	"github.com/quotehub/quotehub/internal/app"
	"github.com/quotehub/quotehub/internal/domain"
)

// SessionHandler exposes session resolution, login redirection, and logout.
type SessionHandler struct {
	session *app.Session
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(session *app.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

// UserResponse is the HTTP shape of a signed-in user.
type UserResponse struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Profession      string   `json:"profession,omitempty"`
	PersonalQuote   string   `json:"personalQuote,omitempty"`
	Admin           bool     `json:"admin"`
	MyQuotes        []string `json:"myQuotes"`
	ProfileComplete bool     `json:"profileComplete"`
}

// SessionResponse is the HTTP shape of the resolved session.
type SessionResponse struct {
	State       string        `json:"state"`
	User        *UserResponse `json:"user,omitempty"`
	HasLoggedIn bool          `json:"hasLoggedIn"`
}

func toUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}

	myQuotes := u.MyQuotes
	if myQuotes == nil {
		myQuotes = []string{}
	}

	return &UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Profession:      u.Profession,
		PersonalQuote:   u.PersonalQuote,
		Admin:           u.Admin,
		MyQuotes:        myQuotes,
		ProfileComplete: u.ProfileComplete(),
	}
}

// Current handles GET /api/v1/session. The first call resolves the session
// against the user service; subsequent calls return the cached snapshot.
func (h *SessionHandler) Current(c *gin.Context) {
	snapshot := h.session.Resolve(c.Request.Context())

	hasLoggedIn, err := h.session.HasEverLoggedIn(c.Request.Context())
	if err != nil {
		// The login hint is cosmetic; never fail the session read over it.
		hasLoggedIn = false
	}

	c.JSON(http.StatusOK, SessionResponse{
		State:       snapshot.State.String(),
		User:        toUserResponse(snapshot.User),
		HasLoggedIn: hasLoggedIn,
	})
}

// Login handles GET /api/v1/session/login with a redirect to the user
// service's login page.
func (h *SessionHandler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.session.LoginURL())
}

// Logout handles POST /api/v1/session/logout. The session is revoked
// upstream, the login hint cleared, and a one-shot alert stashed for the
// next flash read.
func (h *SessionHandler) Logout(c *gin.Context) {
	err := h.session.Logout(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err, dto.WithLogin(h.session.LoginURL()))
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterSessionRoutes registers session routes on the given router group.
func (h *SessionHandler) RegisterSessionRoutes(rg *gin.RouterGroup) {
	session := rg.Group("/session")
	session.GET("", h.Current)
	session.GET("/login", h.Login)
	session.POST("/logout", h.Logout)
}
