package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/dicepool/api/middleware"
	"github.com/use-agent/dicepool/dice"
	"github.com/use-agent/dicepool/history"
	"github.com/use-agent/dicepool/models"
	"github.com/use-agent/dicepool/webhook"
)

// Roll returns a handler for POST /roll.
//
// Flow:
//  1. Parse request.
//  2. Roll num_dadi dice (400 outside 1-100).
//  3. Sort descending and extract raises.
//  4. Record, notify, return 200.
func Roll(hist *history.Store, notifier *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		pool, err := dice.Roll(req.NumDice, sourceFor(req.Seed))
		if err != nil {
			respondError(c, err)
			return
		}
		out := dice.Score(pool)

		resp := models.NewDiceResponse(out)
		track(c, hist, notifier, models.HistoryEntry{
			Kind:         "roll",
			Results:      resp.Results,
			Raises:       resp.Raises,
			Combinations: resp.Combinations,
		})
		c.JSON(http.StatusOK, resp)
	}
}

// RollWithReroll returns a handler for POST /roll_with_reroll.
//
// The original pool is reported in roll order. When rilancia_uno is set,
// the first die showing 1 in that order is rerolled before the pool is
// sorted and scored.
func RollWithReroll(hist *history.Store, notifier *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RollWithRerollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		src := sourceFor(req.Seed)
		original, err := dice.Roll(req.NumDice, src)
		if err != nil {
			respondError(c, err)
			return
		}

		updated := slices.Clone(original)
		var rerolled *int
		if req.RerollOne {
			if v, ok := dice.RerollFirstOne(updated, src); ok {
				rerolled = &v
			}
		}
		out := dice.Score(updated)

		track(c, hist, notifier, models.HistoryEntry{
			Kind:         "roll_with_reroll",
			Results:      out.Pool,
			Raises:       out.Raises,
			Combinations: out.Combinations,
			Rerolled:     rerolled,
		})
		c.JSON(http.StatusOK, models.RollWithRerollResponse{
			OriginalResults: original,
			Rerolled:        rerolled,
			UpdatedResults:  out.Pool,
			Raises:          out.Raises,
			Combinations:    out.Combinations,
		})
	}
}

// Reroll returns a handler for POST /reroll.
//
// Rerolls the first 1 of a submitted pool and scores the result. Fails with
// NO_REROLL_TARGET when the pool has no 1.
func Reroll(hist *history.Store, notifier *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RerollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		if err := dice.ValidatePool(req.Results); err != nil {
			respondError(c, err)
			return
		}

		updated, rerolled, err := dice.Reroll(req.Results, sourceFor(req.Seed))
		if err != nil {
			respondError(c, err)
			return
		}
		out := dice.Score(updated)

		resp := models.NewDiceResponse(out)
		track(c, hist, notifier, models.HistoryEntry{
			Kind:         "reroll",
			Results:      resp.Results,
			Raises:       resp.Raises,
			Combinations: resp.Combinations,
			Rerolled:     &rerolled,
		})
		c.JSON(http.StatusOK, resp)
	}
}

// sourceFor picks a deterministic source when the request carries a seed.
func sourceFor(seed *uint64) dice.Source {
	if seed != nil {
		return dice.NewSeededSource(*seed)
	}
	return dice.NewSource()
}

// track stores the outcome in the user's history and publishes it.
func track(c *gin.Context, hist *history.Store, notifier *webhook.Notifier, entry models.HistoryEntry) {
	user := middleware.UserID(c)
	entry.CreatedAt = time.Now().Unix()
	slog.Debug("dice scored",
		"user_id", user,
		"kind", entry.Kind,
		"dice", len(entry.Results),
		"raises", entry.Raises,
	)

	if hist != nil {
		hist.Record(user, entry)
	}

	event := webhook.EventRollCompleted
	if entry.Kind == "reroll" {
		event = webhook.EventRerollCompleted
	}
	notifier.Publish(event, user, entry)
}
