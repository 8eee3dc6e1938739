// Package service implements Governa's form-action layer: one service per
// back-office module. Every action follows the same contract: parse the
// submitted fields, validate, perform the persistence call(s), invalidate
// the cached views that display the affected entity, and answer with a
// discriminated JSON result — {"success":true,"message":...} or
// {"error":...}. No failure escapes a handler; everything converts to a
// user-facing message at this boundary.
package service

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// actionResult is the uniform success envelope.
type actionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// actionError is the uniform failure envelope. Fields carries per-field
// validation messages when a schema-validated form fails.
type actionError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, actionResult{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, actionError{Error: message})
}

func writeFieldErrors(w http.ResponseWriter, message string, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, actionError{Error: message, Fields: fields})
}
