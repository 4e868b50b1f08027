package forest

import (
	"math/rand"
)

const leaf = -1

// Tree is a fitted binary decision tree stored as parallel node arrays.
// Node 0 is the root. Leaves have Feature == -1 and carry a class
// probability distribution in Value.
type Tree struct {
	Feature   []int       `yaml:"feature"`
	Threshold []float64   `yaml:"threshold"`
	Left      []int       `yaml:"left"`
	Right     []int       `yaml:"right"`
	Value     [][]float64 `yaml:"value"`
}

// predict returns the leaf distribution reached by x.
func (t *Tree) predict(x []float64) []float64 {
	node := 0
	for t.Feature[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

func (t *Tree) addNode() int {
	t.Feature = append(t.Feature, leaf)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, leaf)
	t.Right = append(t.Right, leaf)
	t.Value = append(t.Value, nil)
	return len(t.Feature) - 1
}

// treeBuilder grows one tree on a weighted sample of the training matrix.
type treeBuilder struct {
	x           [][]float64
	nonzero     [][]int
	y           []int
	weight      []float64
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	tree        *Tree
	importance  []float64
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (b *treeBuilder) build(samples []int) int {
	node := b.tree.addNode()
	dist, total := b.distribution(samples)
	impurity := gini(dist, total)

	if len(samples) < 2 || impurity <= 1e-12 {
		b.tree.Value[node] = normalize(dist, total)
		return node
	}

	best, ok := b.bestSplit(samples, dist, total, impurity)
	if !ok {
		b.tree.Value[node] = normalize(dist, total)
		return node
	}

	b.importance[best.feature] += best.gain
	b.tree.Feature[node] = best.feature
	b.tree.Threshold[node] = best.threshold
	left := b.build(best.left)
	right := b.build(best.right)
	b.tree.Left[node] = left
	b.tree.Right[node] = right
	return node
}

func (b *treeBuilder) distribution(samples []int) ([]float64, float64) {
	dist := make([]float64, b.nClasses)
	var total float64
	for _, s := range samples {
		dist[b.y[s]] += b.weight[s]
		total += b.weight[s]
	}
	return dist, total
}

// bestSplit examines candidate features in random order until maxFeatures
// non-constant ones were evaluated. Features that are zero for every sample in
// the node are constant and never candidates.
func (b *treeBuilder) bestSplit(samples []int, dist []float64, total, impurity float64) (split, bool) {
	seen := make(map[int]struct{})
	var candidates []int
	for _, s := range samples {
		for _, f := range b.nonzero[s] {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				candidates = append(candidates, f)
			}
		}
	}
	sortInts(candidates)
	b.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	var best split
	found := false
	visited := 0
	order := make([]int, len(samples))
	leftDist := make([]float64, b.nClasses)

	for _, f := range candidates {
		if visited >= b.maxFeatures {
			break
		}
		copy(order, samples)
		sortByFeature(order, b.x, f)
		lo, hi := b.x[order[0]][f], b.x[order[len(order)-1]][f]
		if lo == hi {
			continue
		}
		visited++

		for c := range leftDist {
			leftDist[c] = 0
		}
		var leftTotal float64
		for i := 0; i < len(order)-1; i++ {
			s := order[i]
			leftDist[b.y[s]] += b.weight[s]
			leftTotal += b.weight[s]

			v, next := b.x[s][f], b.x[order[i+1]][f]
			if v == next {
				continue
			}
			rightTotal := total - leftTotal
			rightImp := giniComplement(dist, leftDist, rightTotal)
			gain := total*impurity - leftTotal*gini(leftDist, leftTotal) - rightTotal*rightImp
			if !found || gain > best.gain {
				found = true
				best = split{
					feature:   f,
					threshold: v + (next-v)/2,
					gain:      gain,
					left:      append([]int(nil), order[:i+1]...),
					right:     append([]int(nil), order[i+1:]...),
				}
			}
		}
	}
	return best, found
}

func gini(dist []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for _, w := range dist {
		p := w / total
		sum += p * p
	}
	return 1 - sum
}

func giniComplement(dist, left []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for c := range dist {
		p := (dist[c] - left[c]) / total
		sum += p * p
	}
	return 1 - sum
}

func normalize(dist []float64, total float64) []float64 {
	out := make([]float64, len(dist))
	if total <= 0 {
		return out
	}
	for i, w := range dist {
		out[i] = w / total
	}
	return out
}
