package train

import "math"

const (
	defaultLearningRate = 0.01
	defaultEpochs       = 500
)

// LinearRegression fits weights by batch gradient descent on MSE.
// Features are standardized internally so the learning rate behaves
// across unscaled inputs; the scaler parameters ship with the model.
type LinearRegression struct {
	LearningRate float64
	Epochs       int
	Weights      []float64
	Bias         float64
	FeatureMean  []float64
	FeatureStd   []float64
}

func NewLinearRegression(h Hyperparameters) *LinearRegression {
	m := &LinearRegression{LearningRate: h.LearningRate, Epochs: h.Epochs}
	if m.LearningRate <= 0 {
		m.LearningRate = defaultLearningRate
	}
	if m.Epochs <= 0 {
		m.Epochs = defaultEpochs
	}
	return m
}

func (m *LinearRegression) Fit(X [][]float64, y []float64) {
	Xs := m.standardizeFit(X)
	n := len(Xs)
	p := len(Xs[0])
	m.Weights = make([]float64, p)
	m.Bias = 0

	for epoch := 0; epoch < m.Epochs; epoch++ {
		gradW := make([]float64, p)
		gradB := 0.0
		for i := 0; i < n; i++ {
			pred := m.Bias
			for j := 0; j < p; j++ {
				pred += m.Weights[j] * Xs[i][j]
			}
			diff := pred - y[i]
			for j := 0; j < p; j++ {
				gradW[j] += diff * Xs[i][j]
			}
			gradB += diff
		}
		for j := 0; j < p; j++ {
			m.Weights[j] -= m.LearningRate * gradW[j] / float64(n)
		}
		m.Bias -= m.LearningRate * gradB / float64(n)
	}
}

func (m *LinearRegression) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		pred := m.Bias
		for j, w := range m.Weights {
			pred += w * m.standardize(row[j], j)
		}
		out[i] = pred
	}
	return out
}

// LogisticRegression fits one-vs-rest binary classifiers by gradient
// descent, so it handles multi-class targets too.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	NumClasses   int
	Weights      [][]float64 // one weight vector per class
	Bias         []float64
	FeatureMean  []float64
	FeatureStd   []float64
}

func NewLogisticRegression(h Hyperparameters) *LogisticRegression {
	m := &LogisticRegression{LearningRate: h.LearningRate, Epochs: h.Epochs}
	if m.LearningRate <= 0 {
		m.LearningRate = 0.1
	}
	if m.Epochs <= 0 {
		m.Epochs = defaultEpochs
	}
	return m
}

func (m *LogisticRegression) Fit(X [][]float64, y []int) {
	m.NumClasses = 0
	for _, c := range y {
		if c+1 > m.NumClasses {
			m.NumClasses = c + 1
		}
	}
	Xs := m.standardizeFit(X)
	n := len(Xs)
	p := len(Xs[0])
	m.Weights = make([][]float64, m.NumClasses)
	m.Bias = make([]float64, m.NumClasses)

	for c := 0; c < m.NumClasses; c++ {
		w := make([]float64, p)
		b := 0.0
		for epoch := 0; epoch < m.Epochs; epoch++ {
			gradW := make([]float64, p)
			gradB := 0.0
			for i := 0; i < n; i++ {
				z := b
				for j := 0; j < p; j++ {
					z += w[j] * Xs[i][j]
				}
				target := 0.0
				if y[i] == c {
					target = 1.0
				}
				diff := sigmoid(z) - target
				for j := 0; j < p; j++ {
					gradW[j] += diff * Xs[i][j]
				}
				gradB += diff
			}
			for j := 0; j < p; j++ {
				w[j] -= m.LearningRate * gradW[j] / float64(n)
			}
			b -= m.LearningRate * gradB / float64(n)
		}
		m.Weights[c] = w
		m.Bias[c] = b
	}
}

func (m *LogisticRegression) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		best, bestScore := 0, math.Inf(-1)
		for c := 0; c < m.NumClasses; c++ {
			z := m.Bias[c]
			for j, w := range m.Weights[c] {
				z += w * m.standardizeWith(row[j], j)
			}
			if z > bestScore {
				best, bestScore = c, z
			}
		}
		out[i] = best
	}
	return out
}

// Proba returns the sigmoid score of class index 1 for each row.
// Meaningful for binary models only.
func (m *LogisticRegression) Proba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if m.NumClasses < 2 {
		return out
	}
	for i, row := range X {
		z := m.Bias[1]
		for j, w := range m.Weights[1] {
			z += w * m.standardizeWith(row[j], j)
		}
		out[i] = sigmoid(z)
	}
	return out
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func (m *LinearRegression) standardizeFit(X [][]float64) [][]float64 {
	m.FeatureMean, m.FeatureStd = columnStats(X)
	return standardizeMatrix(X, m.FeatureMean, m.FeatureStd)
}

func (m *LinearRegression) standardize(v float64, j int) float64 {
	return (v - m.FeatureMean[j]) / m.FeatureStd[j]
}

func (m *LogisticRegression) standardizeFit(X [][]float64) [][]float64 {
	m.FeatureMean, m.FeatureStd = columnStats(X)
	return standardizeMatrix(X, m.FeatureMean, m.FeatureStd)
}

func (m *LogisticRegression) standardizeWith(v float64, j int) float64 {
	return (v - m.FeatureMean[j]) / m.FeatureStd[j]
}

// columnStats computes per-column mean and std; zero stds become 1 so
// constant columns pass through unchanged.
func columnStats(X [][]float64) ([]float64, []float64) {
	p := len(X[0])
	n := float64(len(X))
	mean := make([]float64, p)
	std := make([]float64, p)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			std[j] += (v - mean[j]) * (v - mean[j])
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func standardizeMatrix(X [][]float64, mean, std []float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		s := make([]float64, len(row))
		for j, v := range row {
			s[j] = (v - mean[j]) / std[j]
		}
		out[i] = s
	}
	return out
}
