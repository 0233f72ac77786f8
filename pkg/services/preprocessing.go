package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/report"
	"github.com/autoprep-inc/autoprep-engine/pkg/suggest"
	"github.com/autoprep-inc/autoprep-engine/pkg/transform"
)

// OperationSpec is the wire form of a manual transformation operation.
type OperationSpec struct {
	Op      string   `json:"op"`
	Column  string   `json:"column,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Method  string   `json:"method,omitempty"`
	To      string   `json:"to,omitempty"`
	Fill    string   `json:"fill,omitempty"`
	Factor  float64  `json:"factor,omitempty"`
	Scheme  string   `json:"scheme,omitempty"`
	Target  string   `json:"target,omitempty"`
	Seed    int64    `json:"seed,omitempty"`
}

// ToOperation maps a spec onto a concrete transform operation.
func (s OperationSpec) ToOperation() (transform.Operation, error) {
	switch s.Op {
	case "drop_columns":
		cols := s.Columns
		if len(cols) == 0 && s.Column != "" {
			cols = []string{s.Column}
		}
		return transform.DropColumns{Columns: cols}, nil
	case "change_type":
		to, err := dataset.ParseType(s.To)
		if err != nil {
			return nil, apperrors.Validation("change_type: %v", err)
		}
		return transform.ChangeType{Column: s.Column, To: to}, nil
	case "handle_missing":
		return transform.HandleMissing{Column: s.Column, Method: s.Method, Fill: s.Fill}, nil
	case "handle_outliers":
		return transform.HandleOutliers{Column: s.Column, Method: s.Method, Factor: s.Factor}, nil
	case "remove_duplicates":
		return transform.RemoveDuplicates{}, nil
	case "encode":
		return transform.Encode{Column: s.Column, Scheme: s.Scheme}, nil
	case "scale":
		return transform.Scale{Column: s.Column, Scheme: s.Scheme}, nil
	case "balance":
		target := s.Target
		if target == "" {
			target = s.Column
		}
		return transform.Balance{Target: target, Method: s.Method, Seed: s.Seed}, nil
	default:
		return nil, apperrors.Validation("unknown operation %q", s.Op)
	}
}

// PreprocessingRequest describes one preprocessing job. Either Suggestions
// (selected from an analysis) or Operations (manual) may be set; both are
// merged into a single batch.
type PreprocessingRequest struct {
	DatasetName string               `json:"dataset_name"`
	Separator   string               `json:"separator,omitempty"`
	OutputName  string               `json:"output_name,omitempty"`
	Suggestions []suggest.Suggestion `json:"selected_suggestions,omitempty"`
	Operations  []OperationSpec      `json:"operations,omitempty"`
}

// PreprocessingResult is the job result payload stored on completion.
type PreprocessingResult struct {
	Dataset       string          `json:"dataset"`
	ProcessedName string          `json:"processed_name"`
	ProcessedPath string          `json:"processed_path"`
	ReportPath    string          `json:"report_path"`
	ShapeBefore   transform.Shape `json:"shape_before"`
	ShapeAfter    transform.Shape `json:"shape_after"`
	Operations    int             `json:"operations"`
}

// PreprocessingService executes transformation batches end to end: load,
// apply, persist the processed dataset, and render the report. Validate
// runs at submission so malformed batches never become jobs.
type PreprocessingService interface {
	Validate(req PreprocessingRequest) error
	Run(ctx context.Context, jobID string, req PreprocessingRequest) (*PreprocessingResult, error)
}

type preprocessingService struct {
	store    dataset.Store
	pipeline *transform.Pipeline
	reports  *report.Builder
	logger   *zap.Logger
}

// NewPreprocessingService creates a new PreprocessingService.
func NewPreprocessingService(store dataset.Store, pipeline *transform.Pipeline, reports *report.Builder, logger *zap.Logger) PreprocessingService {
	return &preprocessingService{
		store:    store,
		pipeline: pipeline,
		reports:  reports,
		logger:   logger.Named("preprocessing-service"),
	}
}

var _ PreprocessingService = (*preprocessingService)(nil)

func (s *preprocessingService) Validate(req PreprocessingRequest) error {
	if req.DatasetName == "" {
		return apperrors.Validation("dataset_name is required")
	}
	ops, err := s.buildOperations(req)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return apperrors.Validation("no operations to apply")
	}
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *preprocessingService) Run(ctx context.Context, jobID string, req PreprocessingRequest) (*PreprocessingResult, error) {
	ops, err := s.buildOperations(req)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, apperrors.Validation("no operations to apply")
	}

	ds, err := s.store.Load(req.DatasetName, req.Separator)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, changeLog, err := s.pipeline.Apply(ds, ops)
	if err != nil {
		return nil, err
	}

	outputName := req.OutputName
	if outputName == "" {
		outputName = processedName(req.DatasetName)
	}
	processedPath, err := s.store.SaveProcessed(outputName, processed)
	if err != nil {
		return nil, err
	}

	changeLog.Dataset = req.DatasetName
	reportPath, err := s.reports.Preprocessing(jobID, changeLog)
	if err != nil {
		return nil, err
	}

	s.logger.Info("preprocessing finished",
		zap.String("job_id", jobID),
		zap.String("dataset", req.DatasetName),
		zap.String("processed", processedPath),
		zap.Int("operations", len(changeLog.Records)))

	return &PreprocessingResult{
		Dataset:       req.DatasetName,
		ProcessedName: outputName,
		ProcessedPath: processedPath,
		ReportPath:    reportPath,
		ShapeBefore:   changeLog.ShapeBefore,
		ShapeAfter:    changeLog.ShapeAfter,
		Operations:    len(changeLog.Records),
	}, nil
}

func (s *preprocessingService) buildOperations(req PreprocessingRequest) ([]transform.Operation, error) {
	ops, err := transform.FromSuggestions(req.Suggestions)
	if err != nil {
		return nil, err
	}
	for _, spec := range req.Operations {
		op, err := spec.ToOperation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// processedName derives the output filename: sales.csv -> sales_processed.csv.
func processedName(datasetName string) string {
	base, ok := strings.CutSuffix(datasetName, ".csv")
	if !ok {
		base = datasetName
	}
	return base + "_processed.csv"
}
