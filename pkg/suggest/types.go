// Package suggest analyzes a dataset profile and proposes cleaning
// operations plus training target candidates, via an AI provider when
// one is configured and deterministic heuristics otherwise.
package suggest

// Kind names a category of cleaning suggestion. Unknown kinds coming
// back from a provider are dropped during validation.
type Kind string

const (
	KindHandleMissing    Kind = "handle_missing_values"
	KindHandleOutliers   Kind = "handle_outliers"
	KindRemoveDuplicates Kind = "remove_duplicates"
	KindConvertType      Kind = "convert_data_type"
	KindNormalization    Kind = "normalization"
	KindDropColumn       Kind = "drop_column"
)

var knownKinds = map[Kind]struct{}{
	KindHandleMissing:    {},
	KindHandleOutliers:   {},
	KindRemoveDuplicates: {},
	KindConvertType:      {},
	KindNormalization:    {},
	KindDropColumn:       {},
}

// knownMethods is the per-kind method vocabulary. A suggestion whose
// method falls outside its kind's vocabulary is dropped during
// validation, same as an unknown kind.
var knownMethods = map[Kind]map[string]struct{}{
	KindHandleMissing: {
		"mean": {}, "median": {}, "mode": {}, "drop_rows": {},
		"forward_fill": {}, "backward_fill": {}, "constant": {},
		"drop_column": {},
	},
	KindHandleOutliers:   {"": {}, "iqr": {}, "remove": {}, "cap": {}},
	KindRemoveDuplicates: {"": {}},
	KindConvertType:      {"": {}},
	KindNormalization:    {"": {}, "standard": {}},
	KindDropColumn:       {"": {}},
}

// Suggestion is one proposed cleaning step. Column is empty for
// dataset-level suggestions such as duplicate removal.
type Suggestion struct {
	Column     string `json:"column,omitempty"`
	Kind       Kind   `json:"kind"`
	Method     string `json:"method,omitempty"`
	TargetType string `json:"target_type,omitempty"`
	Reason     string `json:"reason"`
}

// TargetCandidate names a column that could serve as a training target,
// with algorithms ranked most promising first.
type TargetCandidate struct {
	Column     string   `json:"column"`
	TaskType   string   `json:"task_type"`
	Algorithms []string `json:"algorithms"`
	Reason     string   `json:"reason"`
}

// Analysis is the full result of analyzing one dataset.
type Analysis struct {
	QualityScore     float64           `json:"quality_score"`
	Summary          string            `json:"summary"`
	Source           string            `json:"source"`
	Suggestions      []Suggestion      `json:"suggestions"`
	TargetCandidates []TargetCandidate `json:"target_candidates"`
}

const (
	TaskClassification = "classification"
	TaskRegression     = "regression"

	SourceAI        = "ai"
	SourceHeuristic = "heuristic"
)

// ClassificationAlgorithms are ranked defaults for classification targets.
var ClassificationAlgorithms = []string{"random_forest", "decision_tree", "logistic_regression"}

// RegressionAlgorithms are ranked defaults for regression targets.
var RegressionAlgorithms = []string{"random_forest", "decision_tree", "linear_regression"}
