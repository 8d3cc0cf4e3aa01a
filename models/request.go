package models

// RollRequest is the payload for POST /roll.
type RollRequest struct {
	// NumDice is the number of ten-sided dice to roll. Required, 1-100.
	NumDice int `json:"num_dadi"`

	// Seed makes the roll reproducible when set.
	Seed *uint64 `json:"seed,omitempty"`
}

// RollWithRerollRequest is the payload for POST /roll_with_reroll.
type RollWithRerollRequest struct {
	// NumDice is the number of ten-sided dice to roll. Required, 1-100.
	NumDice int `json:"num_dadi"`

	// RerollOne rerolls the first die showing 1, if any, before scoring.
	RerollOne bool `json:"rilancia_uno"`

	// Seed makes the roll reproducible when set.
	Seed *uint64 `json:"seed,omitempty"`
}

// RerollRequest is the payload for POST /reroll.
type RerollRequest struct {
	// Results is a previously rolled pool. Faces must be 1-10, at most 100 dice.
	Results []int `json:"risultati"`

	// Seed makes the reroll reproducible when set.
	Seed *uint64 `json:"seed,omitempty"`
}

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	UserID string `json:"user_id" binding:"required"`
}
