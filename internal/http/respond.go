package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// writeJSON serializes payload with the given status. Serialization
// failures at this point can only be programming errors, so they are
// logged and the connection is left to die.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// envelope is the generic success body: a human-readable message plus
// named payload fields.
type envelope map[string]any

// writeError maps a domain error to its HTTP status and body. Validation
// failures carry the full field list; unexpected errors are logged and
// hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := core.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"fields": ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Resource not found"})
	case errors.Is(err, core.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, core.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Authentication required"})
	default:
		slog.ErrorContext(r.Context(), "Unhandled error",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
	}
}

// decodeBody decodes a JSON request body into dst, rejecting unknown
// fields so typos surface as 400s instead of silently dropped data.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		verr := &core.ValidationError{}
		verr.Add("body", "Request body must be valid JSON: "+err.Error())
		return verr
	}
	return nil
}
