package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-rides-backend/internal/models"
	"campus-rides-backend/internal/repository"
	"campus-rides-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// statusForError maps service and storage errors to HTTP status codes
func statusForError(err error) int {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondDenial sends a policy denial. Denials about who may act are 403;
// denials about the group's current state are 409.
func respondDenial(w http.ResponseWriter, denial *models.Denial) {
	status := http.StatusConflict
	switch denial.Reason {
	case models.DenyPreferenceBlocked, models.DenyNotCreator, models.DenyCreatorMustDelete:
		status = http.StatusForbidden
	}
	respondJSON(w, status, denial)
}
