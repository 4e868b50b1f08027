package forest

import "sort"

func sortInts(xs []int) {
	sort.Ints(xs)
}

// sortByFeature orders sample indices by their value of feature f, breaking
// ties by index so results are deterministic.
func sortByFeature(samples []int, x [][]float64, f int) {
	sort.Slice(samples, func(i, j int) bool {
		a, b := x[samples[i]][f], x[samples[j]][f]
		if a != b {
			return a < b
		}
		return samples[i] < samples[j]
	})
}
