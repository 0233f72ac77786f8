package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/dataset"
	"github.com/autoprep-inc/autoprep-engine/pkg/services"
)

// maxUploadBytes caps dataset uploads at 100 MiB.
const maxUploadBytes = 100 << 20

// DatasetHandler serves dataset upload, listing and preview.
type DatasetHandler struct {
	store    *dataset.FileStore
	analysis services.AnalysisService
	logger   *zap.Logger
}

// NewDatasetHandler creates a new DatasetHandler.
func NewDatasetHandler(store *dataset.FileStore, analysis services.AnalysisService, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{store: store, analysis: analysis, logger: logger}
}

// RegisterRoutes registers the dataset handler's routes on the given mux.
func (h *DatasetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasets/upload", h.Upload)
	mux.HandleFunc("GET /api/datasets", h.List)
	mux.HandleFunc("GET /api/datasets/preview/{name}", h.Preview)
}

// UploadResponse names the stored dataset.
type UploadResponse struct {
	Dataset string `json:"dataset"`
	Path    string `json:"path"`
}

// Upload handles POST /api/datasets/upload (multipart form, field "file").
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "expected a multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".csv" && ext != ".txt" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "only .csv and .txt uploads are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "failed to read upload")
		return
	}

	path, err := h.store.SaveUpload(name, data)
	if err != nil {
		h.logger.Error("Failed to save upload", zap.String("name", name), zap.Error(err))
		_ = writeError(w, err)
		return
	}

	h.logger.Info("dataset uploaded", zap.String("name", name), zap.Int("bytes", len(data)))
	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: UploadResponse{Dataset: name, Path: path}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListResponse enumerates uploaded datasets.
type ListResponse struct {
	Datasets []string `json:"datasets"`
	Total    int      `json:"total"`
}

// List handles GET /api/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ListUploads()
	if err != nil {
		h.logger.Error("Failed to list datasets", zap.Error(err))
		_ = writeError(w, err)
		return
	}

	response := ListResponse{Datasets: names, Total: len(names)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Preview handles GET /api/datasets/preview/{name}?target_column=&separator=.
func (h *DatasetHandler) Preview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	target := r.URL.Query().Get("target_column")
	separator := r.URL.Query().Get("separator")

	preview, err := h.analysis.Preview(r.Context(), name, target, separator)
	if err != nil {
		h.logger.Warn("Failed to build preview", zap.String("dataset", name), zap.Error(err))
		_ = writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: preview}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
