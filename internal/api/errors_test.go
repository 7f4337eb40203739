package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mewshq/mews/internal/adminmgmt"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/scope"
)

func TestWriteError_Envelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, http.StatusNotFound, ErrCodeNotFound, "Member not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Member not found" {
		t.Errorf("unexpected message %q", resp.Error.Message)
	}
}

func TestWriteError_SetsErrorCodeOnRequestContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, http.StatusForbidden, ErrCodeForbidden, "nope")

	if got := middleware.GetErrorCode(req.Context()); got != ErrCodeForbidden {
		t.Errorf("expected error code on request context, got %q", got)
	}
}

func TestWriteError_EscapesMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"quotes", `bad "input" here`},
		{"backslash", `path\to\thing`},
		{"newline", "line one\nline two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			WriteError(w, req, http.StatusBadRequest, ErrCodeBadRequest, tt.message)

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("message round-trip failed: got %q, want %q", resp.Error.Message, tt.message)
			}
		})
	}
}

func TestWriteServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", fmt.Errorf("%w: bad input", adminmgmt.ErrValidation), http.StatusBadRequest, ErrCodeValidation},
		{"not found", adminmgmt.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"forbidden", fmt.Errorf("%w: outranked", adminmgmt.ErrForbidden), http.StatusForbidden, ErrCodeForbidden},
		{"conflict", adminmgmt.ErrConflict, http.StatusConflict, ErrCodeConflict},
		{"drill-down", scope.ErrDrillDownForbidden, http.StatusForbidden, ErrCodeDrillDownForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			WriteServiceError(w, req, tt.err)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Error.Code)
			}
		})
	}
}

func TestWriteServiceError_InternalHidesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	WriteServiceError(w, req, errors.New("pq: connection refused"))

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Error.Message != "An internal error occurred" {
		t.Errorf("internal errors must not leak detail, got %q", resp.Error.Message)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeAuthFailed, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeDrillDownForbidden, http.StatusForbidden},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCodeMapping(tt.code); got != tt.expected {
			t.Errorf("StatusCodeMapping(%q) = %d, want %d", tt.code, got, tt.expected)
		}
	}
}
