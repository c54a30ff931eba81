package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotehub/quotehub/internal/adapters/http/dto"
	"github.com/quotehub/quotehub/internal/ports"
)

// AlertHandler exposes the one-shot alert stash.
type AlertHandler struct {
	store ports.StateStore
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(store ports.StateStore) *AlertHandler {
	return &AlertHandler{store: store}
}

// AlertResponse is the HTTP shape of a flash alert.
type AlertResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Flash handles GET /api/v1/alerts/flash. The pending alert is consumed by
// the read; a second call returns 204. There is never more than one pending
// alert.
func (h *AlertHandler) Flash(c *gin.Context) {
	alert, err := h.store.TakeAlert(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if alert == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, AlertResponse{
		Type:    string(alert.Type),
		Message: alert.Message,
	})
}

// RegisterAlertRoutes registers alert routes on the given router group.
func (h *AlertHandler) RegisterAlertRoutes(rg *gin.RouterGroup) {
	alerts := rg.Group("/alerts")
	alerts.GET("/flash", h.Flash)
}
