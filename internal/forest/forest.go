// Package forest implements a random forest of Gini decision trees with
// class-balanced weighting, plus the stratified split and evaluation metrics
// used to train it.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTrees = 100
	DefaultSeed  = 42
)

// Options configures Fit.
type Options struct {
	Trees int
	Seed  int64
	// MaxFeatures is the number of non-constant features examined per split;
	// zero means sqrt(nFeatures).
	MaxFeatures int
	// Balanced weights each class by n/(k*n_c) so rare categories count as
	// much as common ones.
	Balanced bool
	// Workers bounds parallel tree fitting; zero means GOMAXPROCS.
	Workers int
	// OnTreeFitted is called once per finished tree. Calls are serialized.
	OnTreeFitted func()
}

// Forest is a fitted ensemble. It is immutable and safe for concurrent use.
type Forest struct {
	NClasses    int       `yaml:"n_classes"`
	NFeatures   int       `yaml:"n_features"`
	Trees       []*Tree   `yaml:"trees"`
	Importances []float64 `yaml:"importances"`
}

// Fit grows a forest on x (rows of length nFeatures) with class indices y in
// [0, nClasses).
func Fit(ctx context.Context, x [][]float64, y []int, nClasses int, opts Options) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("forest: no training samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("forest: %d samples but %d labels", len(x), len(y))
	}
	if nClasses < 1 {
		return nil, errors.New("forest: need at least one class")
	}
	nFeatures := len(x[0])
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("forest: row %d has %d features, want %d", i, len(row), nFeatures)
		}
		if y[i] < 0 || y[i] >= nClasses {
			return nil, fmt.Errorf("forest: label %d out of range", y[i])
		}
	}

	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = int(math.Max(1, math.Sqrt(float64(nFeatures))))
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	classWeight := make([]float64, nClasses)
	for c := range classWeight {
		classWeight[c] = 1
	}
	if opts.Balanced {
		counts := make([]int, nClasses)
		present := 0
		for _, c := range y {
			if counts[c] == 0 {
				present++
			}
			counts[c]++
		}
		for c, n := range counts {
			if n > 0 {
				classWeight[c] = float64(len(y)) / float64(present*n)
			}
		}
	}

	nonzero := make([][]int, len(x))
	for i, row := range x {
		for f, v := range row {
			if v != 0 {
				nonzero[i] = append(nonzero[i], f)
			}
		}
	}

	master := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f := &Forest{NClasses: nClasses, NFeatures: nFeatures, Trees: make([]*Tree, opts.Trees)}
	importances := make([][]float64, opts.Trees)

	var progressMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for t := 0; t < opts.Trees; t++ {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tree, imp := fitTree(x, nonzero, y, nClasses, classWeight, opts.MaxFeatures, seeds[t])
			f.Trees[t] = tree
			importances[t] = imp
			if opts.OnTreeFitted != nil {
				progressMu.Lock()
				opts.OnTreeFitted()
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forest: fitting interrupted: %w", err)
	}

	f.Importances = averageImportances(importances, nFeatures)
	return f, nil
}

func fitTree(x [][]float64, nonzero [][]int, y []int, nClasses int, classWeight []float64, maxFeatures int, seed int64) (*Tree, []float64) {
	rng := rand.New(rand.NewSource(seed))
	n := len(x)

	weight := make([]float64, n)
	for i := 0; i < n; i++ {
		weight[rng.Intn(n)]++
	}
	samples := make([]int, 0, n)
	for i, w := range weight {
		if w > 0 {
			weight[i] = w * classWeight[y[i]]
			samples = append(samples, i)
		}
	}

	b := &treeBuilder{
		x:           x,
		nonzero:     nonzero,
		y:           y,
		weight:      weight,
		nClasses:    nClasses,
		maxFeatures: maxFeatures,
		rng:         rng,
		tree:        &Tree{},
		importance:  make([]float64, len(x[0])),
	}
	b.build(samples)
	return b.tree, b.importance
}

func averageImportances(perTree [][]float64, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	for _, imp := range perTree {
		var sum float64
		for _, v := range imp {
			sum += v
		}
		if sum <= 0 {
			continue
		}
		for i, v := range imp {
			out[i] += v / sum
		}
	}
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

// PredictProba averages the leaf distributions of every tree.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("forest: got %d features, want %d", len(x), f.NFeatures)
	}
	proba := make([]float64, f.NClasses)
	if len(f.Trees) == 0 {
		return proba, nil
	}
	for _, t := range f.Trees {
		for c, p := range t.predict(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba, nil
}

// Predict returns the arg-max class and its averaged probability. Ties go to
// the lowest class index.
func (f *Forest) Predict(x []float64) (int, float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for c := range proba {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best, proba[best], nil
}

// Validate checks structural consistency of a restored forest.
func (f *Forest) Validate() error {
	if f.NClasses < 1 || f.NFeatures < 1 {
		return errors.New("forest: missing dimensions")
	}
	if len(f.Trees) == 0 {
		return errors.New("forest: no trees")
	}
	for ti, t := range f.Trees {
		if t == nil || len(t.Feature) == 0 {
			return fmt.Errorf("forest: tree %d is empty", ti)
		}
		n := len(t.Feature)
		if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return fmt.Errorf("forest: tree %d has ragged node arrays", ti)
		}
		for i := 0; i < n; i++ {
			if t.Feature[i] == leaf {
				if len(t.Value[i]) != f.NClasses {
					return fmt.Errorf("forest: tree %d leaf %d has %d classes", ti, i, len(t.Value[i]))
				}
				continue
			}
			if t.Feature[i] < 0 || t.Feature[i] >= f.NFeatures {
				return fmt.Errorf("forest: tree %d node %d splits on feature %d", ti, i, t.Feature[i])
			}
			if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
				return fmt.Errorf("forest: tree %d node %d has invalid children", ti, i)
			}
		}
	}
	return nil
}
