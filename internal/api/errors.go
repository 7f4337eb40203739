// Package api provides HTTP API handlers and standardized error handling.
package api

import (
	"errors"
	"net/http"

	"github.com/mewshq/mews/internal/adminmgmt"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/scope"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeForbidden indicates the request is forbidden.
	ErrCodeForbidden = "forbidden"

	// ErrCodeConflict indicates a conflict with the current state.
	ErrCodeConflict = "conflict"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeDrillDownForbidden indicates a drill-down target outside the
	// caller's jurisdiction.
	ErrCodeDrillDownForbidden = "drill_down_forbidden"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response and records the error
// code on the request context so the logging middleware can pick it up.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	*r = *r.WithContext(middleware.SetErrorCode(r.Context(), code))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// The envelope is small and fixed; hand-encoding avoids a marshal error
	// path that cannot happen.
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":` + quoteJSON(message) + `}}`))
}

// quoteJSON escapes a message for embedding in the error envelope.
func quoteJSON(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\t':
			out = append(out, '\\', 't')
		default:
			if c < 0x20 {
				out = append(out, ' ')
			} else {
				out = append(out, c)
			}
		}
	}
	return string(append(out, '"'))
}

// WriteServiceError maps workflow and scope errors to the error envelope.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, adminmgmt.ErrValidation):
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, adminmgmt.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, adminmgmt.ErrForbidden):
		WriteError(w, r, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, adminmgmt.ErrConflict):
		WriteError(w, r, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, scope.ErrDrillDownForbidden):
		WriteError(w, r, http.StatusForbidden, ErrCodeDrillDownForbidden,
			"Requested location is outside your jurisdiction")
	default:
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal,
			"An internal error occurred")
	}
}

// StatusCodeMapping returns the recommended HTTP status code for common error codes.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden, ErrCodeDrillDownForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
