package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdityaDas31/Whisp-Backend/internal/hub"
)

// PresenceHandler exposes the live presence registry over REST.
type PresenceHandler interface {
	GetOnlineUsers(c *gin.Context)
}

type presenceHandler struct {
	presence *hub.PresenceRegistry
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(presence *hub.PresenceRegistry) PresenceHandler {
	return &presenceHandler{
		presence: presence,
	}
}

// GetOnlineUsers returns the ids of every user with at least one open connection
// @Summary List online users
// @Tags Presence
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/online-users [get]
func (h *presenceHandler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"onlineUsers": h.presence.OnlineUserIDs(),
	})
}
