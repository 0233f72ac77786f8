package train

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/transform"
)

// Result is the immutable outcome of one completed training run.
type Result struct {
	Target       string             `json:"target"`
	TaskType     string             `json:"task_type"`
	Algorithm    string             `json:"algorithm"`
	Metrics      map[string]float64 `json:"metrics"`
	TrainRows    int                `json:"train_rows"`
	TestRows     int                `json:"test_rows"`
	FeatureNames []string           `json:"feature_names"`
	Classes      []string           `json:"classes,omitempty"`
	ModelPath    string             `json:"model_path"`
}

// Engine runs training end to end: feature preparation, split, fit,
// evaluation, artifact persistence.
type Engine struct {
	pipeline  *transform.Pipeline
	modelsDir string
	logger    *zap.Logger
}

// NewEngine creates a training engine writing model artifacts under
// modelsDir.
func NewEngine(modelsDir string, logger *zap.Logger) *Engine {
	return &Engine{
		pipeline:  transform.NewPipeline(logger),
		modelsDir: modelsDir,
		logger:    logger.Named("train"),
	}
}

// Train fits and evaluates a model. artifactID names the model file,
// typically the owning job's id. The input dataset is not mutated.
func (e *Engine) Train(ctx context.Context, d *dataset.Dataset, cfg Config, artifactID string) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ops, err := prepareOps(d, &cfg)
	if err != nil {
		return nil, err
	}
	prepared, _, err := e.pipeline.Apply(d, ops)
	if err != nil {
		return nil, err
	}
	if prepared.Rows() < 2 {
		return nil, apperrors.Training("only %d usable rows after preparation", prepared.Rows())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	X, names, err := featureMatrix(prepared, cfg.Target)
	if err != nil {
		return nil, err
	}
	target := prepared.Column(cfg.Target)

	result := &Result{
		Target:       cfg.Target,
		TaskType:     cfg.TaskType,
		Algorithm:    cfg.Algorithm,
		FeatureNames: names,
	}
	artifact := &Artifact{
		Algorithm:    cfg.Algorithm,
		TaskType:     cfg.TaskType,
		Target:       cfg.Target,
		FeatureNames: names,
	}

	if cfg.TaskType == TaskClassification {
		err = e.trainClassifier(X, target, &cfg, result, artifact)
	} else {
		err = e.trainRegressor(X, target, &cfg, result, artifact)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(e.modelsDir, artifactID+".gob")
	if err := artifact.Save(path); err != nil {
		return nil, err
	}
	result.ModelPath = path

	e.logger.Info("training completed",
		zap.String("dataset", d.Name),
		zap.String("algorithm", cfg.Algorithm),
		zap.String("task_type", cfg.TaskType),
		zap.Int("train_rows", result.TrainRows),
		zap.Int("test_rows", result.TestRows),
		zap.String("model", path))
	return result, nil
}

func (e *Engine) trainClassifier(X [][]float64, target *dataset.Column, cfg *Config, result *Result, artifact *Artifact) error {
	y, labels := classLabels(target)
	if len(labels) == 0 {
		return apperrors.Training("target %q has no values", cfg.Target)
	}
	if len(labels) < 2 {
		return apperrors.Training("target %q has a single class %q", cfg.Target, labels[0])
	}
	result.Classes = labels
	artifact.Classes = labels

	trainIdx, testIdx := StratifiedSplit(y, cfg.TestSize, cfg.Seed)
	trainX, trainY := selectRowsInt(X, y, trainIdx)
	testX, testY := selectRowsInt(X, y, testIdx)
	if len(testY) == 0 {
		return apperrors.Training("test partition is empty with test_size %g over %d rows", cfg.TestSize, len(y))
	}
	if distinctInts(trainY) < 2 {
		return apperrors.Training("training partition holds a single class after split, adjust test_size or balance the data")
	}

	var predict func([][]float64) []int
	var score func([][]float64) []float64
	switch cfg.Algorithm {
	case AlgorithmRandomForest:
		m := NewForestClassifier(cfg.Hyper, cfg.Seed)
		m.Fit(trainX, trainY)
		artifact.ForestClassifier = m
		predict, score = m.Predict, m.Proba
	case AlgorithmDecisionTree:
		m := NewTreeClassifier(cfg.Hyper)
		m.Fit(trainX, trainY)
		artifact.TreeClassifier = m
		predict, score = m.Predict, m.Proba
	case AlgorithmLogisticRegression:
		m := NewLogisticRegression(cfg.Hyper)
		m.Fit(trainX, trainY)
		artifact.LogisticRegression = m
		predict, score = m.Predict, m.Proba
	}

	result.TrainRows = len(trainY)
	result.TestRows = len(testY)
	result.Metrics = ClassificationMetrics(testY, predict(testX), len(labels))
	if len(labels) == 2 {
		result.Metrics["roc_auc"] = RocAUC(testY, score(testX))
	}
	return nil
}

func (e *Engine) trainRegressor(X [][]float64, target *dataset.Column, cfg *Config, result *Result, artifact *Artifact) error {
	y, err := regressionTargets(target)
	if err != nil {
		return err
	}

	trainIdx, testIdx := Split(len(y), cfg.TestSize, cfg.Seed)
	trainX, trainY := selectRowsFloat(X, y, trainIdx)
	testX, testY := selectRowsFloat(X, y, testIdx)

	var predict func([][]float64) []float64
	switch cfg.Algorithm {
	case AlgorithmRandomForest:
		m := NewForestRegressor(cfg.Hyper, cfg.Seed)
		m.Fit(trainX, trainY)
		artifact.ForestRegressor = m
		predict = m.Predict
	case AlgorithmDecisionTree:
		m := NewTreeRegressor(cfg.Hyper)
		m.Fit(trainX, trainY)
		artifact.TreeRegressor = m
		predict = m.Predict
	case AlgorithmLinearRegression:
		m := NewLinearRegression(cfg.Hyper)
		m.Fit(trainX, trainY)
		artifact.LinearRegression = m
		predict = m.Predict
	}

	result.TrainRows = len(trainY)
	result.TestRows = len(testY)
	result.Metrics = RegressionMetrics(testY, predict(testX))
	return nil
}

func selectRowsInt(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}

func selectRowsFloat(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}

func distinctInts(y []int) int {
	seen := make(map[int]struct{}, 4)
	for _, v := range y {
		seen[v] = struct{}{}
	}
	return len(seen)
}
