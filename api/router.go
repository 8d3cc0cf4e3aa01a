package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/api/handler"
	"github.com/use-agent/dicepool/api/middleware"
	"github.com/use-agent/dicepool/auth"
	"github.com/use-agent/dicepool/chat"
	"github.com/use-agent/dicepool/config"
	"github.com/use-agent/dicepool/history"
	"github.com/use-agent/dicepool/webhook"
)

// Deps bundles the collaborators the routes need.
type Deps struct {
	Issuer   *auth.Issuer
	History  *history.Store
	Hub      *chat.Hub
	Notifier *webhook.Notifier
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Dice:    Auth (if enabled) → RateLimit
//
// Paths are served at the root, where the browser front end expects them.
// Login, health and the chat socket stay outside auth.
func NewRouter(cfg *config.Config, deps Deps, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Public.
	r.GET("/health", handler.Health(deps.Hub, startTime))
	r.POST("/login", handler.Login(deps.Issuer))
	if deps.Hub != nil {
		r.GET("/ws", gin.WrapF(deps.Hub.ServeWS))
		r.GET("/ws/", gin.WrapF(deps.Hub.ServeWS))
	}

	// Dice routes: auth, then rate limit.
	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(deps.Issuer))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/roll", handler.Roll(deps.History, deps.Notifier))
	protected.POST("/roll_with_reroll", handler.RollWithReroll(deps.History, deps.Notifier))
	protected.POST("/reroll", handler.Reroll(deps.History, deps.Notifier))
	protected.GET("/history", handler.History(deps.History))

	return r
}
