package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/services"
)

// AnalysisHandler serves dataset analysis. Analysis is synchronous: the
// provider call is bounded by retry limits and always degrades to
// heuristics, so there is no long-running work to background.
type AnalysisHandler struct {
	analysis services.AnalysisService
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysis services.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, logger: logger}
}

// RegisterRoutes registers the analysis handler's routes on the given mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analysis/{dataset}", h.Analyze)
}

// Analyze handles POST /api/analysis/{dataset}?separator=.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("dataset")
	separator := r.URL.Query().Get("separator")

	analysis, err := h.analysis.Analyze(r.Context(), name, separator)
	if err != nil {
		h.logger.Warn("Analysis failed", zap.String("dataset", name), zap.Error(err))
		_ = writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: analysis}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
