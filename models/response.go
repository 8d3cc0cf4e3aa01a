package models

import "github.com/use-agent/dicepool/dice"

// DiceResponse is the response for POST /roll and POST /reroll.
type DiceResponse struct {
	// Results is the scored pool, highest face first.
	Results []int `json:"risultati"`

	// Raises is the number of groups of dice reaching 10.
	Raises int `json:"raises"`

	// Combinations lists those groups in the order they were taken.
	Combinations [][]int `json:"combinazioni"`
}

// RollWithRerollResponse is the response for POST /roll_with_reroll.
type RollWithRerollResponse struct {
	// OriginalResults is the pool as rolled, in roll order.
	OriginalResults []int `json:"risultati_originali"`

	// Rerolled is the new face of the rerolled die, or null when nothing
	// was rerolled.
	Rerolled *int `json:"rilanciato"`

	// UpdatedResults is the scored pool after the reroll, highest face first.
	UpdatedResults []int `json:"risultati_aggiornati"`

	Raises       int     `json:"raises"`
	Combinations [][]int `json:"combinazioni"`
}

// NewDiceResponse converts a scored pool into its wire form.
func NewDiceResponse(out dice.Outcome) DiceResponse {
	return DiceResponse{
		Results:      out.Pool,
		Raises:       out.Raises,
		Combinations: out.Combinations,
	}
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	ChatClients int    `json:"chat_clients"`
}

// HistoryEntry is one scored roll kept for a user.
type HistoryEntry struct {
	// Kind is the operation that produced the entry: "roll",
	// "roll_with_reroll" or "reroll".
	Kind         string  `json:"kind"`
	Results      []int   `json:"risultati"`
	Raises       int     `json:"raises"`
	Combinations [][]int `json:"combinazioni"`
	Rerolled     *int    `json:"rilanciato,omitempty"`
	CreatedAt    int64   `json:"created_at"`
}

// HistoryResponse is the response for GET /history.
type HistoryResponse struct {
	UserID  string         `json:"user_id"`
	Entries []HistoryEntry `json:"entries"`
}

// ErrorResponse wraps an ErrorDetail for failed requests.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}
