package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/api/middleware"
	"github.com/use-agent/dicepool/history"
	"github.com/use-agent/dicepool/models"
)

// History returns a handler for GET /history: the caller's recent
// outcomes, newest first.
func History(hist *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.UserID(c)
		entries := []models.HistoryEntry{}
		if hist != nil {
			entries = hist.List(user)
		}
		c.JSON(http.StatusOK, models.HistoryResponse{
			UserID:  user,
			Entries: entries,
		})
	}
}
