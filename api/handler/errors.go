package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/models"
)

// respondError maps an error to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	diceErr := models.FromError(err)
	status := mapErrorToStatus(diceErr)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, models.ErrorResponse{Error: diceErr.ToDetail()})
}

// respondBindError reports a malformed request body.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidArgument,
			Message: err.Error(),
		},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.DiceError) int {
	switch e.Code {
	case models.ErrCodeInvalidArgument, models.ErrCodeNoRerollTarget:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
