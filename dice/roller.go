// Package dice scores ten-sided dice pools.
//
// A pool is scored by repeatedly extracting "raises": groups of dice whose
// faces add up to at least Threshold. Each round picks the group with the
// most dice (the last one discovered on ties), removes those dice and starts
// over on what is left, until no group reaches the threshold. The strategy is
// greedy and does not promise the globally best raise count.
package dice

import (
	"errors"
	"slices"
)

const (
	// Threshold is the sum a group of dice must reach to count as a raise.
	Threshold = 10

	// MinFace and MaxFace bound the value of a single ten-sided die.
	MinFace = 1
	MaxFace = 10

	// MaxDice is the largest pool that can be rolled or scored.
	MaxDice = 100
)

// ErrInvalidDieCount indicates a die count outside [1, MaxDice].
var ErrInvalidDieCount = errors.New("number of dice must be between 1 and 100")

// ErrInvalidFace indicates a submitted face value outside [MinFace, MaxFace].
var ErrInvalidFace = errors.New("die faces must be between 1 and 10")

// ErrNoRerollTarget indicates a reroll was requested on a pool without a 1.
var ErrNoRerollTarget = errors.New("no die showing 1 to reroll")

// Roll produces n independent faces drawn from src, in the order they were
// rolled. Callers sort the pool (see SortDescending and Score) before scoring.
//
// n must be in [1, MaxDice], otherwise ErrInvalidDieCount is returned and no
// pool is produced.
func Roll(n int, src Source) ([]int, error) {
	if n < 1 || n > MaxDice {
		return nil, ErrInvalidDieCount
	}

	pool := make([]int, n)
	for i := range pool {
		pool[i] = face(src)
	}
	return pool, nil
}

// SortDescending orders pool in place from the highest face to the lowest.
func SortDescending(pool []int) {
	slices.SortFunc(pool, func(a, b int) int { return b - a })
}

// ValidatePool checks a caller-supplied pool: at most MaxDice dice, every
// face in [MinFace, MaxFace]. An empty pool is valid.
func ValidatePool(pool []int) error {
	if len(pool) > MaxDice {
		return ErrInvalidDieCount
	}
	if !facesInRange(pool) {
		return ErrInvalidFace
	}
	return nil
}
