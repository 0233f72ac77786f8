package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/jobs"
	"github.com/autoprep-inc/autoprep-engine/pkg/services"
)

// PreprocessingHandler starts preprocessing jobs and serves their status.
type PreprocessingHandler struct {
	service  services.PreprocessingService
	jobStore jobs.Store
	runner   *jobs.Runner
	logger   *zap.Logger
}

// NewPreprocessingHandler creates a new PreprocessingHandler.
func NewPreprocessingHandler(service services.PreprocessingService, jobStore jobs.Store, runner *jobs.Runner, logger *zap.Logger) *PreprocessingHandler {
	return &PreprocessingHandler{
		service:  service,
		jobStore: jobStore,
		runner:   runner,
		logger:   logger,
	}
}

// RegisterRoutes registers the preprocessing handler's routes on the given mux.
func (h *PreprocessingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/preprocessing/start", h.Start)
	mux.HandleFunc("GET /api/preprocessing/status/{id}", h.Status)
	mux.HandleFunc("GET /api/preprocessing/jobs", h.List)
}

// StartJobResponse acknowledges an accepted job.
type StartJobResponse struct {
	JobID string `json:"job_id"`
}

// Start handles POST /api/preprocessing/start. Validation failures are
// synchronous; accepted work returns 202 with the job id to poll.
func (h *PreprocessingHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req services.PreprocessingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.service.Validate(req); err != nil {
		_ = writeError(w, err)
		return
	}

	job, err := h.jobStore.Create(r.Context(), jobs.KindPreprocessing, req.DatasetName, req)
	if err != nil {
		h.logger.Error("Failed to create preprocessing job", zap.Error(err))
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

// Status handles GET /api/preprocessing/status/{id}.
func (h *PreprocessingHandler) Status(w http.ResponseWriter, r *http.Request) {
	serveJobStatus(w, r, h.jobStore, h.logger)
}

// List handles GET /api/preprocessing/jobs.
func (h *PreprocessingHandler) List(w http.ResponseWriter, r *http.Request) {
	serveJobList(w, r, h.jobStore, jobs.KindPreprocessing, h.logger)
}
