package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/report"
)

// ReportHandler serves rendered job reports.
type ReportHandler struct {
	reports *report.Builder
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *report.Builder, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// RegisterRoutes registers the report handler's routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reports", h.List)
	mux.HandleFunc("GET /api/reports/{id}", h.View)
	mux.HandleFunc("DELETE /api/reports/{id}", h.Delete)
}

// ReportListResponse enumerates report job ids.
type ReportListResponse struct {
	Reports []string `json:"reports"`
	Total   int      `json:"total"`
}

// List handles GET /api/reports.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.reports.List()
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		_ = writeError(w, err)
		return
	}

	response := ReportListResponse{Reports: ids, Total: len(ids)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// View handles GET /api/reports/{id}, returning the rendered HTML.
func (h *ReportHandler) View(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	html, err := h.reports.Read(id)
	if err != nil {
		_ = writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(html); err != nil {
		h.logger.Error("Failed to write report", zap.String("id", id), zap.Error(err))
	}
}

// Delete handles DELETE /api/reports/{id}.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.reports.Delete(id); err != nil {
		_ = writeError(w, err)
		return
	}

	h.logger.Info("report deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}
