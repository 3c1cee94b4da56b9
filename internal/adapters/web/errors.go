package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"pharmacy-backend/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeCoreError maps the core error taxonomy onto HTTP statuses: validation
// failures are client errors, missing references are 404, stock shortfalls
// are conflicts, contention is 503 (retryable), storage failures 500.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *core.ValidationError
		nfe *core.NotFoundError
		ise *core.InsufficientStockError
		ce  *core.ContentionError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, r, ve.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &nfe):
		writeError(w, r, nfe.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &ise):
		writeError(w, r, ise.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.As(err, &ce):
		writeError(w, r, ce.Error(), "CONTENTION", http.StatusServiceUnavailable)
	default:
		writeError(w, r, err.Error(), "STORAGE_ERROR", http.StatusInternalServerError)
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields, and
// writes an appropriate error response on failure. Returns HTTP 413 when the
// body exceeds the size limit set by RequestBodyLimit middleware; HTTP 400
// for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
