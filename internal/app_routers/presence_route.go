package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/AdityaDas31/Whisp-Backend/internal/configuration"
	"github.com/AdityaDas31/Whisp-Backend/internal/handler"
)

// PresenceRouters sets up presence API routes
func PresenceRouters(router *gin.Engine, container *configuration.Container) {
	presenceHandler := handler.NewPresenceHandler(container.Hub.Presence())

	presenceGroup := router.Group("/api")
	{
		// GET /api/online-users - Users with at least one open connection
		presenceGroup.GET("/online-users", presenceHandler.GetOnlineUsers)
	}
}
