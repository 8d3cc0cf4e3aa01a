package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/chat"
	"github.com/use-agent/dicepool/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /health.
func Health(hub *chat.Hub, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		clients := 0
		if hub != nil {
			clients = hub.Clients()
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      "healthy",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Version:     Version,
			ChatClients: clients,
		})
	}
}
