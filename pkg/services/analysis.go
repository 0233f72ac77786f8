package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/profile"
	"github.com/autoprep-inc/autoprep-engine/pkg/suggest"
)

// Preview is the profile view shown before any job is started.
type Preview struct {
	Dataset       string                  `json:"dataset"`
	Rows          int                     `json:"rows"`
	Columns       int                     `json:"columns"`
	QualityScore  float64                 `json:"quality_score"`
	DuplicateRows int                     `json:"duplicate_rows"`
	Summaries     []profile.ColumnSummary `json:"column_summaries"`
	ClassBalance  map[string]int          `json:"class_balance,omitempty"`
}

// AnalysisService profiles datasets and produces cleaning suggestions.
type AnalysisService interface {
	// Analyze runs the suggestion engine against a dataset. Provider
	// failures fall back to heuristics, so the result is always usable.
	Analyze(ctx context.Context, datasetName, separator string) (*suggest.Analysis, error)

	// Preview returns column summaries and, when targetColumn is set, the
	// class balance of that column.
	Preview(ctx context.Context, datasetName, targetColumn, separator string) (*Preview, error)
}

type analysisService struct {
	store  dataset.Store
	engine *suggest.Engine
	logger *zap.Logger
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(store dataset.Store, engine *suggest.Engine, logger *zap.Logger) AnalysisService {
	return &analysisService{
		store:  store,
		engine: engine,
		logger: logger.Named("analysis-service"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

func (s *analysisService) Analyze(ctx context.Context, datasetName, separator string) (*suggest.Analysis, error) {
	ds, err := s.store.Load(datasetName, separator)
	if err != nil {
		return nil, err
	}

	analysis, err := s.engine.Analyze(ctx, ds)
	if err != nil {
		return nil, err
	}

	s.logger.Info("dataset analyzed",
		zap.String("dataset", datasetName),
		zap.String("source", analysis.Source),
		zap.Int("suggestions", len(analysis.Suggestions)))
	return analysis, nil
}

func (s *analysisService) Preview(ctx context.Context, datasetName, targetColumn, separator string) (*Preview, error) {
	ds, err := s.store.Load(datasetName, separator)
	if err != nil {
		return nil, err
	}

	p := profile.Summarize(ds)
	preview := &Preview{
		Dataset:       datasetName,
		Rows:          p.Rows,
		Columns:       p.Columns,
		QualityScore:  profile.QualityScore(p),
		DuplicateRows: profile.CountDuplicateRows(ds),
		Summaries:     p.Summaries,
	}

	if targetColumn != "" {
		col := ds.Column(targetColumn)
		if col == nil {
			return nil, apperrors.Validation("target column %q not found in %q", targetColumn, datasetName)
		}
		preview.ClassBalance = profile.ClassBalance(col)
	}

	return preview, nil
}
