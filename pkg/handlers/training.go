package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/jobs"
	"github.com/autoprep-inc/autoprep-engine/pkg/services"
)

// TrainingHandler starts training jobs and serves their status.
type TrainingHandler struct {
	service  services.TrainingService
	jobStore jobs.Store
	runner   *jobs.Runner
	logger   *zap.Logger
}

// NewTrainingHandler creates a new TrainingHandler.
func NewTrainingHandler(service services.TrainingService, jobStore jobs.Store, runner *jobs.Runner, logger *zap.Logger) *TrainingHandler {
	return &TrainingHandler{
		service:  service,
		jobStore: jobStore,
		runner:   runner,
		logger:   logger,
	}
}

// RegisterRoutes registers the training handler's routes on the given mux.
func (h *TrainingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/training/start", h.Start)
	mux.HandleFunc("GET /api/training/status/{id}", h.Status)
	mux.HandleFunc("GET /api/training/jobs", h.List)
}

// Start handles POST /api/training/start. Unsupported task/algorithm
// combinations fail here, before any job exists.
func (h *TrainingHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req services.TrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.DatasetName == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_error", "dataset_name is required")
		return
	}

	if err := h.service.Validate(req); err != nil {
		_ = writeError(w, err)
		return
	}

	job, err := h.jobStore.Create(r.Context(), jobs.KindTraining, req.DatasetName, req)
	if err != nil {
		h.logger.Error("Failed to create training job", zap.Error(err))
		_ = writeError(w, err)
		return
	}

	if err := h.runner.Submit(job, false, func(ctx context.Context, j *jobs.Job) (any, error) {
		return h.service.Run(ctx, j.ID.String(), req)
	}); err != nil {
		_ = writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Data: StartJobResponse{JobID: job.ID.String()}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Status handles GET /api/training/status/{id}.
func (h *TrainingHandler) Status(w http.ResponseWriter, r *http.Request) {
	serveJobStatus(w, r, h.jobStore, h.logger)
}

// List handles GET /api/training/jobs.
func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	serveJobList(w, r, h.jobStore, jobs.KindTraining, h.logger)
}
