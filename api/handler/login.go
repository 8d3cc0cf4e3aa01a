package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/auth"
	"github.com/use-agent/dicepool/models"
)

// Login returns a handler for POST /login.
//
// The token is written as a plain-text body, ready to be sent back as
// "Authorization: Bearer <token>".
func Login(iss *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		token, err := iss.Issue(req.UserID)
		switch {
		case errors.Is(err, auth.ErrMissingUser):
			respondError(c, models.NewDiceError(models.ErrCodeInvalidArgument, err.Error(), err))
			return
		case err != nil:
			respondError(c, err)
			return
		}

		slog.Info("token issued", "user_id", req.UserID)
		c.String(http.StatusOK, token)
	}
}
