package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/AdityaDas31/Whisp-Backend/internal/configuration"
	"github.com/AdityaDas31/Whisp-Backend/internal/handler"
	"github.com/AdityaDas31/Whisp-Backend/internal/hub"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	// Create monitor service with hub reference
	monitorService := hub.NewMonitorService(container.Hub)

	// Create monitor handler
	monitorHandler := handler.NewMonitorHandler(monitorService)

	// Monitor API group
	monitorGroup := router.Group("/api/monitor")
	{
		// GET /api/monitor/stats - Get hub statistics
		monitorGroup.GET("/stats", monitorHandler.GetHubStats)
	}
}
