package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/report"
	"github.com/autoprep-inc/autoprep-engine/pkg/train"
)

// TrainingRequest describes one training job.
type TrainingRequest struct {
	DatasetName string       `json:"dataset_name"`
	Separator   string       `json:"separator,omitempty"`
	Config      train.Config `json:"config"`
}

// TrainingResult is the job result payload stored on completion.
type TrainingResult struct {
	Dataset    string        `json:"dataset"`
	ReportPath string        `json:"report_path"`
	Run        *train.Result `json:"run"`
}

// TrainingService fits a model on a dataset and renders the evaluation
// report. The configuration is validated before any work happens, so bad
// requests fail synchronously at submission.
type TrainingService interface {
	Validate(req TrainingRequest) error
	Run(ctx context.Context, jobID string, req TrainingRequest) (*TrainingResult, error)
}

type trainingService struct {
	store   dataset.Store
	engine  *train.Engine
	reports *report.Builder
	logger  *zap.Logger
}

// NewTrainingService creates a new TrainingService.
func NewTrainingService(store dataset.Store, engine *train.Engine, reports *report.Builder, logger *zap.Logger) TrainingService {
	return &trainingService{
		store:   store,
		engine:  engine,
		reports: reports,
		logger:  logger.Named("training-service"),
	}
}

var _ TrainingService = (*trainingService)(nil)

func (s *trainingService) Validate(req TrainingRequest) error {
	return req.Config.Validate()
}

func (s *trainingService) Run(ctx context.Context, jobID string, req TrainingRequest) (*TrainingResult, error) {
	ds, err := s.store.Load(req.DatasetName, req.Separator)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Train(ctx, ds, req.Config, jobID)
	if err != nil {
		return nil, err
	}

	reportPath, err := s.reports.Training(jobID, result)
	if err != nil {
		return nil, err
	}

	s.logger.Info("training finished",
		zap.String("job_id", jobID),
		zap.String("dataset", req.DatasetName),
		zap.String("algorithm", result.Algorithm),
		zap.String("model", result.ModelPath))

	return &TrainingResult{
		Dataset:    req.DatasetName,
		ReportPath: reportPath,
		Run:        result,
	}, nil
}
