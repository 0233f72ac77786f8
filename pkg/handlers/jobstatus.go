package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/jobs"
)

// JobResponse is the polling view of a job. Result and Error are mutually
// exclusive; both absent means the job has not finished.
type JobResponse struct {
	JobID   string          `json:"job_id"`
	Kind    jobs.Kind       `json:"kind"`
	Dataset string          `json:"dataset,omitempty"`
	Status  jobs.Status     `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func toJobResponse(j *jobs.Job) JobResponse {
	return JobResponse{
		JobID:   j.ID.String(),
		Kind:    j.Kind,
		Dataset: j.Dataset,
		Status:  j.Status,
		Result:  j.Result,
		Error:   j.Error,
	}
}

// parseJobID reads the {id} path value; a malformed ID gets a 400.
func parseJobID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Debug("malformed job id", zap.String("id", raw))
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "malformed job id")
		return uuid.Nil, false
	}
	return id, true
}

// serveJobStatus answers a status poll for one job.
func serveJobStatus(w http.ResponseWriter, r *http.Request, store jobs.Store, logger *zap.Logger) {
	id, ok := parseJobID(w, r, logger)
	if !ok {
		return
	}

	job, err := store.Get(r.Context(), id)
	if err != nil {
		_ = writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: toJobResponse(job)}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// serveJobList answers a listing of jobs of one kind.
func serveJobList(w http.ResponseWriter, r *http.Request, store jobs.Store, kind jobs.Kind, logger *zap.Logger) {
	filter := jobs.Filter{Kind: kind, Status: jobs.Status(r.URL.Query().Get("status"))}
	list, err := store.List(r.Context(), filter)
	if err != nil {
		_ = writeError(w, err)
		return
	}

	out := make([]JobResponse, len(list))
	for i, j := range list {
		out[i] = toJobResponse(j)
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: out}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
