package dice

import "slices"

// Result is the outcome of one Maximize run.
type Result struct {
	// Raises is the number of groups extracted.
	Raises int

	// Combinations holds the extracted groups in the order they were taken.
	// It is never nil.
	Combinations [][]int
}

// Outcome pairs a scored pool, as it stood after sorting, with its Result.
type Outcome struct {
	Pool []int
	Result
}

// Maximize extracts raises from pool until none is left.
//
// Each round looks at the dice still available, picks the group with the
// most dice (the last discovered one on ties, see FindSubsets) and removes
// its dice by value: for every face in the group, the first remaining die
// showing that face goes. Rounds stop when no group reaches Threshold.
//
// pool is not modified. Maximize is deterministic: the same pool always
// yields the same Result.
func Maximize(pool []int) Result {
	res := Result{Combinations: make([][]int, 0)}
	remaining := slices.Clone(pool)

	for len(remaining) > 0 {
		best := lastLongest(remaining, Threshold)
		if best == nil {
			break
		}
		res.Raises++
		res.Combinations = append(res.Combinations, best)
		remaining = removeByValue(remaining, best)
	}

	return res
}

// Score sorts a copy of pool in descending order and maximizes it.
func Score(pool []int) Outcome {
	sorted := slices.Clone(pool)
	if sorted == nil {
		sorted = make([]int, 0)
	}
	SortDescending(sorted)
	return Outcome{Pool: sorted, Result: Maximize(sorted)}
}

// removeByValue drops, for each face in used, the first die in pool showing
// that face. Dice with equal faces are interchangeable, so which instance
// goes does not change later rounds.
func removeByValue(pool, used []int) []int {
	for _, v := range used {
		if i := slices.Index(pool, v); i >= 0 {
			pool = slices.Delete(pool, i, i+1)
		}
	}
	return pool
}
