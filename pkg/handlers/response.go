package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

// ApiResponse is the standard envelope for successful responses.
type ApiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// statusFor maps the error taxonomy onto HTTP status codes and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case apperrors.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case apperrors.IsTransformation(err):
		return http.StatusUnprocessableEntity, "transformation_error"
	case apperrors.IsTraining(err):
		return http.StatusUnprocessableEntity, "training_error"
	case apperrors.IsProvider(err):
		return http.StatusBadGateway, "provider_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps an engine error to its HTTP shape.
func writeError(w http.ResponseWriter, err error) error {
	status, code := statusFor(err)
	return ErrorResponse(w, status, code, err.Error())
}
