// Package train fits and evaluates models on processed datasets. All
// algorithms are pure Go over float64 matrices; the engine reuses the
// transformation pipeline for feature preparation so training applies
// the exact semantics of preprocessing.
package train

import (
	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

const (
	TaskClassification = "classification"
	TaskRegression     = "regression"
)

const (
	AlgorithmRandomForest       = "random_forest"
	AlgorithmDecisionTree       = "decision_tree"
	AlgorithmLogisticRegression = "logistic_regression"
	AlgorithmLinearRegression   = "linear_regression"
)

// supportedAlgorithms maps task type to its algorithm vocabulary.
var supportedAlgorithms = map[string]map[string]struct{}{
	TaskClassification: {
		AlgorithmRandomForest:       {},
		AlgorithmDecisionTree:       {},
		AlgorithmLogisticRegression: {},
	},
	TaskRegression: {
		AlgorithmRandomForest:     {},
		AlgorithmDecisionTree:     {},
		AlgorithmLinearRegression: {},
	},
}

// Null-handling policies for feature preparation. NullImpute picks the
// statistic per column (mean for numeric, mode for text); the explicit
// statistics force it, falling back to mode where a mean or median
// cannot exist.
const (
	NullImpute   = "impute"
	NullDropRows = "drop_rows"
	NullDrop     = "drop"
	NullMean     = "mean"
	NullMedian   = "median"
	NullMode     = "mode"
	NullConstant = "constant"
)

// Hyperparameters tune the fitted model; zero values select defaults.
type Hyperparameters struct {
	NumTrees        int     `json:"n_estimators,omitempty"`
	MaxDepth        int     `json:"max_depth,omitempty"`
	MinSamplesSplit int     `json:"min_samples_split,omitempty"`
	LearningRate    float64 `json:"learning_rate,omitempty"`
	Epochs          int     `json:"epochs,omitempty"`
}

// Config describes one training run.
type Config struct {
	Target         string          `json:"target"`
	TaskType       string          `json:"task_type"`
	Algorithm      string          `json:"algorithm"`
	TestSize       float64         `json:"test_size"`
	Seed           int64           `json:"random_state"`
	ExcludeColumns []string        `json:"exclude_columns,omitempty"`
	OneHotColumns  []string        `json:"ohe_columns,omitempty"`
	ScaleColumns   []string        `json:"scale_columns,omitempty"`
	NullHandling   string          `json:"null_handling,omitempty"`
	NullFillValue  string          `json:"null_fill_value,omitempty"`
	Hyper          Hyperparameters `json:"hyperparameters,omitempty"`
}

// Validate catches configuration errors before any data work starts.
func (c *Config) Validate() error {
	if c.Target == "" {
		return apperrors.Validation("training target is required")
	}
	algos, ok := supportedAlgorithms[c.TaskType]
	if !ok {
		return apperrors.Validation("unknown task type %q", c.TaskType)
	}
	if _, ok := algos[c.Algorithm]; !ok {
		return apperrors.Validation("algorithm %q is not supported for %s", c.Algorithm, c.TaskType)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return apperrors.Validation("test_size must be in (0,1), got %g", c.TestSize)
	}
	switch c.NullHandling {
	case "", NullImpute, NullDropRows, NullDrop, NullMean, NullMedian, NullMode:
	case NullConstant:
		if c.NullFillValue == "" {
			return apperrors.Validation("null_handling %q requires null_fill_value", NullConstant)
		}
	default:
		return apperrors.Validation("unknown null_handling %q", c.NullHandling)
	}
	return nil
}

func (c *Config) nullHandling() string {
	if c.NullHandling == "" {
		return NullImpute
	}
	return c.NullHandling
}
