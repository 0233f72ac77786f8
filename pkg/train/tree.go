package train

import (
	"sort"
)

// Node is one tree node. Fields are exported for gob serialization of
// fitted models.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Pred      int     // class index at a classifier leaf
	Value     float64 // mean target at a regressor leaf
	Counts    []int   // class counts at a classifier leaf
}

// TreeClassifier is a CART classifier splitting on gini impurity.
type TreeClassifier struct {
	MaxDepth        int
	MinSamplesSplit int
	NumClasses      int
	Root            *Node
}

// NewTreeClassifier applies defaults: depth 10, split minimum 2.
func NewTreeClassifier(h Hyperparameters) *TreeClassifier {
	t := &TreeClassifier{
		MaxDepth:        h.MaxDepth,
		MinSamplesSplit: h.MinSamplesSplit,
	}
	if t.MaxDepth == 0 {
		t.MaxDepth = 10
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	return t
}

// Fit trains on X (n rows by p features) and class indexes y.
func (t *TreeClassifier) Fit(X [][]float64, y []int) {
	t.NumClasses = 0
	for _, c := range y {
		if c+1 > t.NumClasses {
			t.NumClasses = c + 1
		}
	}
	idx := allIndexes(len(X))
	t.Root = t.build(X, y, idx, 0)
}

// Predict returns class indexes for each row.
func (t *TreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		out[i] = descend(t.Root, row).Pred
	}
	return out
}

// Proba returns the positive-class probability for each row, taken
// from class proportions at the reached leaf. Meaningful for binary
// models; class index 1 is the positive class.
func (t *TreeClassifier) Proba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		n := descend(t.Root, row)
		total := 0
		for _, c := range n.Counts {
			total += c
		}
		if total > 0 && len(n.Counts) > 1 {
			out[i] = float64(n.Counts[1]) / float64(total)
		}
	}
	return out
}

func (t *TreeClassifier) build(X [][]float64, y []int, idx []int, depth int) *Node {
	counts := make([]int, t.NumClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	node := &Node{Pred: argmax(counts), Counts: counts}

	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit || isPure(counts) {
		node.Leaf = true
		return node
	}

	feature, threshold, gain := bestClassifierSplit(X, y, idx, t.NumClasses)
	if gain <= 0 {
		node.Leaf = true
		return node
	}
	left, right := partition(X, idx, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		node.Leaf = true
		return node
	}
	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.build(X, y, left, depth+1)
	node.Right = t.build(X, y, right, depth+1)
	return node
}

// TreeRegressor is a CART regressor splitting on variance reduction.
type TreeRegressor struct {
	MaxDepth        int
	MinSamplesSplit int
	Root            *Node
}

// NewTreeRegressor applies the same structural defaults as the
// classifier.
func NewTreeRegressor(h Hyperparameters) *TreeRegressor {
	t := &TreeRegressor{MaxDepth: h.MaxDepth, MinSamplesSplit: h.MinSamplesSplit}
	if t.MaxDepth == 0 {
		t.MaxDepth = 10
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	return t
}

func (t *TreeRegressor) Fit(X [][]float64, y []float64) {
	t.Root = t.build(X, y, allIndexes(len(X)), 0)
}

func (t *TreeRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = descend(t.Root, row).Value
	}
	return out
}

func (t *TreeRegressor) build(X [][]float64, y []float64, idx []int, depth int) *Node {
	node := &Node{Value: meanAt(y, idx)}
	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit {
		node.Leaf = true
		return node
	}

	feature, threshold, gain := bestRegressorSplit(X, y, idx)
	if gain <= 0 {
		node.Leaf = true
		return node
	}
	left, right := partition(X, idx, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		node.Leaf = true
		return node
	}
	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.build(X, y, left, depth+1)
	node.Right = t.build(X, y, right, depth+1)
	return node
}

func descend(n *Node, row []float64) *Node {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

// bestClassifierSplit searches every feature and candidate threshold
// for the split with maximal gini gain.
func bestClassifierSplit(X [][]float64, y []int, idx []int, nClasses int) (int, float64, float64) {
	parentCounts := make([]int, nClasses)
	for _, i := range idx {
		parentCounts[y[i]]++
	}
	parent := gini(parentCounts)

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	p := len(X[0])
	total := float64(len(idx))

	for f := 0; f < p; f++ {
		order := sortedByFeature(X, idx, f)
		leftCounts := make([]int, nClasses)
		rightCounts := append([]int{}, parentCounts...)
		for k := 0; k < len(order)-1; k++ {
			c := y[order[k]]
			leftCounts[c]++
			rightCounts[c]--
			a, b := X[order[k]][f], X[order[k+1]][f]
			if a == b {
				continue
			}
			nl := float64(k + 1)
			nr := total - nl
			gain := parent - (nl/total)*gini(leftCounts) - (nr/total)*gini(rightCounts)
			if gain > bestGain {
				bestFeature = f
				bestThreshold = (a + b) / 2
				bestGain = gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func bestRegressorSplit(X [][]float64, y []float64, idx []int) (int, float64, float64) {
	parent := varianceAt(y, idx)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	p := len(X[0])
	total := float64(len(idx))

	for f := 0; f < p; f++ {
		order := sortedByFeature(X, idx, f)
		// running sums for incremental variance
		var lSum, lSq float64
		rSum, rSq := 0.0, 0.0
		for _, i := range order {
			rSum += y[i]
			rSq += y[i] * y[i]
		}
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			lSum += v
			lSq += v * v
			rSum -= v
			rSq -= v * v
			a, b := X[order[k]][f], X[order[k+1]][f]
			if a == b {
				continue
			}
			nl := float64(k + 1)
			nr := total - nl
			lVar := lSq/nl - (lSum/nl)*(lSum/nl)
			rVar := rSq/nr - (rSum/nr)*(rSum/nr)
			gain := parent - (nl/total)*lVar - (nr/total)*rVar
			if gain > bestGain {
				bestFeature = f
				bestThreshold = (a + b) / 2
				bestGain = gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func sortedByFeature(X [][]float64, idx []int, f int) []int {
	order := append([]int{}, idx...)
	sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })
	return order
}

func partition(X [][]float64, idx []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func gini(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		g -= p * p
	}
	return g
}

func isPure(counts []int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func allIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func varianceAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	m := meanAt(y, idx)
	v := 0.0
	for _, i := range idx {
		v += (y[i] - m) * (y[i] - m)
	}
	return v / float64(len(idx))
}
