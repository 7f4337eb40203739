package api

import (
	"log/slog"
	"net/http"

	"github.com/mewshq/mews/internal/analytics"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/scope"
)

// DashboardHandlers serves the scoped dashboard and demographic analytics.
// Both endpoints accept an optional ?locationId= drill-down; the resolver
// rejects targets outside the caller's jurisdiction.
type DashboardHandlers struct {
	resolver  *scope.Resolver
	analytics *analytics.Service
	logger    *slog.Logger
}

// NewDashboardHandlers creates a new dashboard handler.
func NewDashboardHandlers(resolver *scope.Resolver, svc *analytics.Service, logger *slog.Logger) *DashboardHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandlers{resolver: resolver, analytics: svc, logger: logger}
}

// resolveScope pulls the caller off the context and resolves the effective
// scope, writing the error response itself on failure.
func (h *DashboardHandlers) resolveScope(w http.ResponseWriter, r *http.Request) (*scope.Scope, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return nil, false
	}

	sc, err := h.resolver.Resolve(r.Context(), caller, r.URL.Query().Get("locationId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return nil, false
	}
	return sc, true
}

// DashboardStats handles GET /api/admin/dashboard-stats.
func (h *DashboardHandlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	sc, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	stats, err := h.analytics.DashboardStats(r.Context(), sc)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard stats failed", "error", err)
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Analytics handles GET /api/admin/analytics.
func (h *DashboardHandlers) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	sc, ok := h.resolveScope(w, r)
	if !ok {
		return
	}

	demo, err := h.analytics.Demographics(r.Context(), sc)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "demographics failed", "error", err)
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, demo)
}
