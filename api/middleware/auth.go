package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/auth"
	"github.com/use-agent/dicepool/models"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

// Auth returns bearer-token authentication middleware.
//
// Expects exactly one header:
//
//	Authorization: Bearer <token>
//
// Tokens come from POST /login. A server without a signing secret answers
// 500 instead of 401, since no token could ever be valid.
func Auth(iss *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		values := c.Request.Header.Values("Authorization")
		if len(values) != 1 || strings.TrimSpace(values[0]) == "" {
			abortUnauthorized(c, "missing token: provide Authorization: Bearer <token>")
			return
		}

		claims, err := iss.Verify(strings.TrimPrefix(values[0], "Bearer "))
		if errors.Is(err, auth.ErrMissingSecret) {
			slog.Error("token verification unavailable", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "authentication is not configured",
				},
			})
			return
		}
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user, or the client IP when auth is off.
func UserID(c *gin.Context) string {
	if id := c.GetString(UserIDKey); id != "" {
		return id
	}
	return c.ClientIP()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
