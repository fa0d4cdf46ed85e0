package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// Error kinds shared across the gateway and the pipeline. Handlers map
// these to HTTP status codes in one place; collaborator internals never
// reach the client.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrUnsafeContent      = errors.New("content rejected by safety check")
	ErrStoreUnavailable   = errors.New("content store unavailable")
	ErrLedgerUnavailable  = errors.New("provenance ledger unavailable")
	ErrModelNotLoaded     = errors.New("model not loaded")
	ErrNotFound           = errors.New("not found")
)

// APIError represents a structured API error response
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
	Details string `json:"details,omitempty"`
}

// writeError writes a structured error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

// writePipelineError translates a pipeline/auth error kind into the
// response the route contract promises.
func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, ErrUnsafeContent):
		writeError(w, http.StatusBadRequest, "UNSAFE_CONTENT", "File rejected by safety check")
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Content not found")
	case errors.Is(err, ErrStoreUnavailable):
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "Content store unavailable")
	case errors.Is(err, ErrLedgerUnavailable):
		writeError(w, http.StatusInternalServerError, "LEDGER_UNAVAILABLE", "Provenance ledger unavailable")
	case errors.Is(err, ErrModelNotLoaded):
		writeError(w, http.StatusInternalServerError, "MODEL_UNAVAILABLE", "Recommendation model unavailable")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
