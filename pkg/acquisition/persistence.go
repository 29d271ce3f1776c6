package acquisition

import "sort"

// persistentMaxima finds every local maximum of row whose topological
// persistence (the height drop before it merges into a taller neighboring
// maximum through an intervening local minimum) exceeds minPersistence.
//
// This is spec.md §9's rewrite of the "Persistence1D library" dependency:
// "pairs each local maximum with its nearest local minimum by scanning
// sorted-by-value indices and maintaining a union-find over adjacency; emit
// only pairs whose (max - min) exceeds a threshold". Implemented here as a
// single stateless pass: process indices in descending value order, growing
// connected "active" runs via union-find; when a run boundary closes (both
// neighbors already active), the lower of the two runs' summit dies into
// the min that just closed the gap, and that (summit, valley) pair is
// emitted if its persistence clears the threshold. The one run that never
// dies is the row's global maximum, which is not returned. The caller adds
// only the grid-wide global maximum as a separate candidate, so a row's own
// highest point is a candidate only when it is that grid-wide maximum.
func persistentMaxima(row []float64, minPersistence float64) []int {
	n := len(row)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return row[order[a]] > row[order[b]] })

	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1 // -1 = not yet active
	}
	summit := make([]int, n) // summit[root] = index of the tallest point in this component

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		parent[find(a)] = find(b)
	}

	var maxima []int

	for _, idx := range order {
		parent[idx] = idx
		summit[idx] = idx

		leftActive := idx > 0 && parent[idx-1] != -1
		rightActive := idx < n-1 && parent[idx+1] != -1

		switch {
		case leftActive && rightActive:
			rl, rr := find(idx-1), find(idx+1)
			if rl == rr {
				union(idx, rl)
				continue
			}
			var survivor, dying int
			if row[summit[rl]] >= row[summit[rr]] {
				survivor, dying = rl, rr
			} else {
				survivor, dying = rr, rl
			}
			persistence := row[summit[dying]] - row[idx]
			if persistence > minPersistence {
				maxima = append(maxima, summit[dying])
			}
			union(idx, rl)
			union(rl, rr)
			root := find(idx)
			summit[root] = summit[survivor]
		case leftActive:
			union(idx, idx-1)
			summit[find(idx)] = summit[find(idx-1)]
		case rightActive:
			union(idx, idx+1)
			summit[find(idx)] = summit[find(idx+1)]
		}
	}

	return maxima
}
