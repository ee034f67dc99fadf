package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"lovehour-backend/internal/repository"
	"lovehour-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// statusForError maps service and repository errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrNotMatched):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyMatched),
		errors.Is(err, repository.ErrPartnerTaken),
		errors.Is(err, services.ErrSelfMatch):
		return http.StatusConflict
	case errors.Is(err, services.ErrGateClosed):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrBadInterval),
		errors.Is(err, services.ErrCaptionTooLong),
		errors.Is(err, services.ErrNoteTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError maps err to a status code, hiding internal detail
// behind a generic message for 500s.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	respondError(w, message, status)
}
