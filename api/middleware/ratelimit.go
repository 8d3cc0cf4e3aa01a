package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/config"
	"github.com/use-agent/dicepool/models"
	"golang.org/x/time/rate"
)

const (
	visitorIdle = time.Hour
	sweepEvery  = 5 * time.Minute
)

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// visitors holds one token bucket per player.
type visitors struct {
	mu    sync.Mutex
	byID  map[string]*visitor
	limit rate.Limit
	burst int
}

func newVisitors(cfg config.RateLimitConfig) *visitors {
	return &visitors{
		byID:  make(map[string]*visitor),
		limit: rate.Limit(cfg.RequestsPerSecond),
		burst: cfg.Burst,
	}
}

// allow spends one token from id's bucket, creating the bucket on first use.
func (v *visitors) allow(id string, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, ok := v.byID[id]
	if !ok {
		vis = &visitor{bucket: rate.NewLimiter(v.limit, v.burst)}
		v.byID[id] = vis
	}
	vis.lastSeen = now
	return vis.bucket.AllowN(now, 1)
}

// sweep forgets players idle since before cutoff and reports how many
// buckets remain.
func (v *visitors) sweep(cutoff time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, vis := range v.byID {
		if vis.lastSeen.Before(cutoff) {
			delete(v.byID, id)
		}
	}
	return len(v.byID)
}

// RateLimit throttles the dice routes per player with a token bucket. The
// player is the authenticated user, or the client IP when auth is off.
// Buckets idle for an hour are dropped.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	v := newVisitors(cfg)

	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for now := range ticker.C {
			v.sweep(now.Add(-visitorIdle))
		}
	}()

	return func(c *gin.Context) {
		if v.allow(UserID(c), time.Now()) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeRateLimited,
				Message: "too many rolls, please slow down",
			},
		})
	}
}
