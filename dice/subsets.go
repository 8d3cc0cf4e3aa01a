package dice

import "slices"

// FindSubsets enumerates every group of dice reachable by walking pool left
// to right and, at each position, first including and then excluding that
// die. A group is emitted the moment its running sum reaches threshold; the
// walk does not extend an emitted group any further. Groups keep the
// positional order of their dice.
//
// The emission order (include before exclude) is the discovery order that
// Maximize uses to break ties. An empty pool, a pool that cannot reach
// threshold or a non-positive threshold yields no groups.
func FindSubsets(pool []int, threshold int) [][]int {
	if threshold <= 0 {
		return nil
	}

	var found [][]int
	cur := make([]int, 0, len(pool))

	var walk func(i, remaining int)
	walk = func(i, remaining int) {
		if remaining <= 0 {
			found = append(found, slices.Clone(cur))
			return
		}
		if i >= len(pool) {
			return
		}
		cur = append(cur, pool[i])
		walk(i+1, remaining-pool[i])
		cur = cur[:len(cur)-1]
		walk(i+1, remaining)
	}
	walk(0, threshold)

	return found
}

// lastLongest returns the group Maximize would pick from
// FindSubsets(pool, threshold): the one with the most dice, and among those
// the last one discovered. It returns nil when no group exists.
//
// Emitted groups are the leaves of the include/exclude tree, so walking the
// tree exclude-first visits them in exactly reverse discovery order. The
// first leaf found at each new best length is therefore the last of that
// length in discovery order, and any branch that cannot produce a strictly
// longer group is skipped. Pruning relies on faces being in
// [MinFace, MaxFace]; other pools fall back to the full enumeration.
func lastLongest(pool []int, threshold int) []int {
	if threshold <= 0 {
		return nil
	}
	if !facesInRange(pool) {
		return pickLastLongest(FindSubsets(pool, threshold))
	}

	n := len(pool)
	// counts[i][v] and sums[i] describe the suffix pool[i:].
	counts := make([][MaxFace + 1]int, n+1)
	sums := make([]int, n+1)
	for i := n - 1; i >= 0; i-- {
		counts[i] = counts[i+1]
		counts[i][pool[i]]++
		sums[i] = sums[i+1] + pool[i]
	}

	var best []int
	cur := make([]int, 0, n)

	var walk func(i, remaining int)
	walk = func(i, remaining int) {
		if remaining <= 0 {
			if len(cur) > len(best) {
				best = slices.Clone(cur)
			}
			return
		}
		if i >= n || sums[i] < remaining {
			return
		}
		if len(cur)+min(maxExtra(&counts[i], remaining), n-i) <= len(best) {
			return
		}
		walk(i+1, remaining)
		cur = append(cur, pool[i])
		walk(i+1, remaining-pool[i])
		cur = cur[:len(cur)-1]
	}
	walk(0, threshold)

	return best
}

// maxExtra bounds how many more dice a group can take from a suffix with the
// given face counts before reaching remaining: every die but the last must
// keep the sum below remaining, and the smallest faces do that longest.
func maxExtra(counts *[MaxFace + 1]int, remaining int) int {
	taken, sum := 0, 0
	for v := MinFace; v <= MaxFace; v++ {
		for range counts[v] {
			if sum+v >= remaining {
				return taken + 1
			}
			sum += v
			taken++
		}
	}
	return taken + 1
}

func facesInRange(pool []int) bool {
	for _, v := range pool {
		if v < MinFace || v > MaxFace {
			return false
		}
	}
	return true
}

// pickLastLongest selects the longest group, keeping the last one on ties.
func pickLastLongest(groups [][]int) []int {
	var best []int
	for _, g := range groups {
		if best == nil || len(g) >= len(best) {
			best = g
		}
	}
	return best
}
