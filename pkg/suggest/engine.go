package suggest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/llm"
	"github.com/autoprep-inc/autoprep-engine/pkg/profile"
	"github.com/autoprep-inc/autoprep-engine/pkg/retry"
)

// defaultProviderTimeout bounds a provider call when the caller gave no
// explicit deadline. Analysis is served synchronously, so a hung
// provider must never hold the request open.
const defaultProviderTimeout = 60 * time.Second

// Engine produces dataset analyses. With no provider it runs in
// heuristics-only mode; with one, provider failures degrade to the
// heuristic path instead of failing the job.
type Engine struct {
	provider    llm.Provider
	temperature float64
	timeout     time.Duration
	retryCfg    *retry.Config
	logger      *zap.Logger
}

// NewEngine creates an analysis engine. provider may be nil. timeout
// bounds each provider call; zero selects the default.
func NewEngine(provider llm.Provider, temperature float64, timeout time.Duration, logger *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Engine{
		provider:    provider,
		temperature: temperature,
		timeout:     timeout,
		retryCfg:    retry.DefaultConfig(),
		logger:      logger.Named("suggest"),
	}
}

// Analyze profiles the dataset and produces cleaning suggestions and
// target candidates. It never fails on provider errors.
func (e *Engine) Analyze(ctx context.Context, d *dataset.Dataset) (*Analysis, error) {
	p := profile.Summarize(d)

	if e.provider == nil {
		return HeuristicAnalysis(p), nil
	}

	analysis, err := e.analyzeWithProvider(ctx, d, p)
	if err != nil {
		e.logger.Warn("provider analysis failed, falling back to heuristics",
			zap.String("dataset", d.Name),
			zap.Error(err))
		return HeuristicAnalysis(p), nil
	}
	return analysis, nil
}

func (e *Engine) analyzeWithProvider(ctx context.Context, d *dataset.Dataset, p profile.DatasetProfile) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := llm.Request{
		System:      systemPrompt,
		Prompt:      BuildPrompt(d, p),
		Temperature: e.temperature,
	}

	var raw string
	err := retry.DoIfRetryable(ctx, e.retryCfg, func() error {
		resp, err := e.provider.Complete(ctx, req)
		if err != nil {
			return err
		}
		raw = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ParseJSONResponse[Analysis](raw)
	if err != nil {
		return nil, err
	}
	analysis := parsed
	analysis.Source = SourceAI
	e.validate(&analysis, d)

	e.logger.Info("provider analysis completed",
		zap.String("dataset", d.Name),
		zap.String("provider", e.provider.Name()),
		zap.Float64("quality_score", analysis.QualityScore),
		zap.Int("suggestions", len(analysis.Suggestions)))
	return &analysis, nil
}

// validate drops hallucinated suggestions silently: unknown kinds or
// methods, references to columns the dataset does not have, malformed
// target types and targets.
func (e *Engine) validate(a *Analysis, d *dataset.Dataset) {
	if a.QualityScore < 0 {
		a.QualityScore = 0
	}
	if a.QualityScore > 10 {
		a.QualityScore = 10
	}

	kept := a.Suggestions[:0]
	for _, s := range a.Suggestions {
		if _, ok := knownKinds[s.Kind]; !ok {
			e.logger.Debug("dropping suggestion with unknown kind", zap.String("kind", string(s.Kind)))
			continue
		}
		if s.Column != "" && !d.HasColumn(s.Column) {
			e.logger.Debug("dropping suggestion for unknown column", zap.String("column", s.Column))
			continue
		}
		if s.Kind != KindRemoveDuplicates && s.Column == "" {
			continue
		}
		if _, ok := knownMethods[s.Kind][s.Method]; !ok {
			e.logger.Debug("dropping suggestion with unsupported method",
				zap.String("kind", string(s.Kind)),
				zap.String("method", s.Method))
			continue
		}
		if s.Kind == KindConvertType {
			if _, err := dataset.ParseType(s.TargetType); err != nil {
				e.logger.Debug("dropping suggestion with unknown target type",
					zap.String("column", s.Column),
					zap.String("target_type", s.TargetType))
				continue
			}
		}
		kept = append(kept, s)
	}
	a.Suggestions = kept

	targets := a.TargetCandidates[:0]
	for _, tc := range a.TargetCandidates {
		if !d.HasColumn(tc.Column) {
			continue
		}
		if tc.TaskType != TaskClassification && tc.TaskType != TaskRegression {
			continue
		}
		if len(tc.Algorithms) == 0 {
			if tc.TaskType == TaskClassification {
				tc.Algorithms = ClassificationAlgorithms
			} else {
				tc.Algorithms = RegressionAlgorithms
			}
		}
		targets = append(targets, tc)
	}
	a.TargetCandidates = targets
}
