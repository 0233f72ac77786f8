package train

import (
	"math/rand"
	"sync"
)

const defaultNumTrees = 50

// ForestClassifier is a bootstrap-aggregated ensemble of classifier
// trees deciding by majority vote. Trees fit in parallel, each from its
// own derived seed so runs are reproducible.
type ForestClassifier struct {
	NumTrees   int
	Seed       int64
	NumClasses int
	Trees      []*TreeClassifier
}

func NewForestClassifier(h Hyperparameters, seed int64) *ForestClassifier {
	f := &ForestClassifier{NumTrees: h.NumTrees, Seed: seed}
	if f.NumTrees <= 0 {
		f.NumTrees = defaultNumTrees
	}
	return f
}

func (f *ForestClassifier) Fit(X [][]float64, y []int) {
	f.NumClasses = 0
	for _, c := range y {
		if c+1 > f.NumClasses {
			f.NumClasses = c + 1
		}
	}
	f.Trees = make([]*TreeClassifier, f.NumTrees)

	var wg sync.WaitGroup
	for t := 0; t < f.NumTrees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.Seed + int64(t)))
			bx, by := bootstrapClassifier(X, y, rng)
			tree := NewTreeClassifier(Hyperparameters{})
			tree.Fit(bx, by)
			// bootstrap may miss the highest class index entirely
			if tree.NumClasses < f.NumClasses {
				tree.NumClasses = f.NumClasses
			}
			f.Trees[t] = tree
		}(t)
	}
	wg.Wait()
}

func (f *ForestClassifier) Predict(X [][]float64) []int {
	votes := make([][]int, len(X))
	for i := range votes {
		votes[i] = make([]int, f.NumClasses)
	}
	for _, tree := range f.Trees {
		for i, pred := range tree.Predict(X) {
			if pred < f.NumClasses {
				votes[i][pred]++
			}
		}
	}
	out := make([]int, len(X))
	for i := range X {
		out[i] = argmax(votes[i])
	}
	return out
}

// Proba averages per-tree positive-class leaf proportions over the
// ensemble.
func (f *ForestClassifier) Proba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(f.Trees) == 0 {
		return out
	}
	for _, tree := range f.Trees {
		for i, p := range tree.Proba(X) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(f.Trees))
	}
	return out
}

// ForestRegressor averages regressor trees.
type ForestRegressor struct {
	NumTrees int
	Seed     int64
	Trees    []*TreeRegressor
}

func NewForestRegressor(h Hyperparameters, seed int64) *ForestRegressor {
	f := &ForestRegressor{NumTrees: h.NumTrees, Seed: seed}
	if f.NumTrees <= 0 {
		f.NumTrees = defaultNumTrees
	}
	return f
}

func (f *ForestRegressor) Fit(X [][]float64, y []float64) {
	f.Trees = make([]*TreeRegressor, f.NumTrees)
	var wg sync.WaitGroup
	for t := 0; t < f.NumTrees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.Seed + int64(t)))
			bx, by := bootstrapRegressor(X, y, rng)
			tree := NewTreeRegressor(Hyperparameters{})
			tree.Fit(bx, by)
			f.Trees[t] = tree
		}(t)
	}
	wg.Wait()
}

func (f *ForestRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for _, tree := range f.Trees {
		for i, pred := range tree.Predict(X) {
			out[i] += pred
		}
	}
	for i := range out {
		out[i] /= float64(len(f.Trees))
	}
	return out
}

func bootstrapClassifier(X [][]float64, y []int, rng *rand.Rand) ([][]float64, []int) {
	n := len(X)
	bx := make([][]float64, n)
	by := make([]int, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		bx[i] = X[j]
		by[i] = y[j]
	}
	return bx, by
}

func bootstrapRegressor(X [][]float64, y []float64, rng *rand.Rand) ([][]float64, []float64) {
	n := len(X)
	bx := make([][]float64, n)
	by := make([]float64, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		bx[i] = X[j]
		by[i] = y[j]
	}
	return bx, by
}
