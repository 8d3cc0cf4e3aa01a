package dice

import "slices"

// RerollFirstOne replaces the first die showing 1, in the pool's current
// order, with a fresh face from src. It reports the new face and whether a 1
// was found. The pool is modified in place and is not re-sorted.
func RerollFirstOne(pool []int, src Source) (int, bool) {
	idx := slices.Index(pool, 1)
	if idx < 0 {
		return 0, false
	}
	v := face(src)
	pool[idx] = v
	return v, true
}

// Reroll rerolls the first 1 of an already produced pool and returns a new,
// descending pool along with the rerolled face. The input is not modified.
//
// ErrNoRerollTarget is returned when no die shows 1.
func Reroll(pool []int, src Source) ([]int, int, error) {
	updated := slices.Clone(pool)
	v, ok := RerollFirstOne(updated, src)
	if !ok {
		return nil, 0, ErrNoRerollTarget
	}
	SortDescending(updated)
	return updated, v, nil
}
