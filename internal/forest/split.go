package forest

import (
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions sample indices into train and test sets so each
// class keeps its proportion in both. Every class keeps at least one training
// sample; singleton classes go entirely to training. Both returned slices are
// sorted.
func StratifiedSplit(labels []int, testSize float64, seed int64) (train, test []int) {
	n := len(labels)
	if n == 0 {
		return nil, nil
	}
	if testSize <= 0 {
		return seq(n), nil
	}

	byClass := make(map[int][]int)
	var classes []int
	for i, c := range labels {
		if _, ok := byClass[c]; !ok {
			classes = append(classes, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	sort.Ints(classes)

	want := int(math.Ceil(testSize * float64(n)))
	if want > n-len(classes) {
		want = n - len(classes)
	}

	alloc := make(map[int]int, len(classes))
	type remainder struct {
		class int
		frac  float64
	}
	var rems []remainder
	assigned := 0
	for _, c := range classes {
		exact := testSize * float64(len(byClass[c]))
		k := int(math.Floor(exact))
		if k > len(byClass[c])-1 {
			k = len(byClass[c]) - 1
		}
		alloc[c] = k
		assigned += k
		rems = append(rems, remainder{c, exact - float64(k)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for assigned < want {
		progressed := false
		for _, r := range rems {
			if assigned >= want {
				break
			}
			if alloc[r.class] < len(byClass[r.class])-1 {
				alloc[r.class]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		test = append(test, idx[:alloc[c]]...)
		train = append(train, idx[alloc[c]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
