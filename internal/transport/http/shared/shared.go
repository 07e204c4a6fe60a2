// Package shared holds response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "fieldbook/pkg/domain-errors"
)

// ErrorResponse is the uniform JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error code to an HTTP status and writes the
// uniform error body. Non-domain errors surface as a generic 500 so internal
// detail never leaks to the caller.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	message := "internal server error"
	var de *dErrors.Error
	if e, ok := err.(*dErrors.Error); ok {
		de = e
	}
	if de != nil && code != dErrors.CodeInternal {
		message = de.Message
	}

	WriteJSON(w, StatusFor(code), ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
