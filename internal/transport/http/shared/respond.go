// Package shared centralizes JSON responses and domain error translation so
// every handler returns the same envelope.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"hrcore/pkg/platform/sentinel"
)

// WriteJSON writes v with the given status. Encoding failures are ignored:
// the header is already out.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates sentinel errors to their HTTP status. Anything
// unrecognized is a 500 with a generic body so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, sentinel.ErrConflict):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, sentinel.ErrUnavailable):
		status = http.StatusServiceUnavailable
		code = "unavailable"
	}
	WriteJSON(w, status, map[string]string{"error": code})
}

// WriteBadRequest reports a malformed request with a short description.
func WriteBadRequest(w http.ResponseWriter, desc string) {
	WriteJSON(w, http.StatusBadRequest, map[string]string{
		"error":             "bad_request",
		"error_description": desc,
	})
}
