package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/scope"
)

// MemberHandlers serves scoped member listings and lookups. A member outside
// the caller's jurisdiction is indistinguishable from one that does not
// exist.
type MemberHandlers struct {
	members  member.Repository
	resolver *scope.Resolver
	logger   *slog.Logger
}

// NewMemberHandlers creates a new member handler.
func NewMemberHandlers(members member.Repository, resolver *scope.Resolver, logger *slog.Logger) *MemberHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberHandlers{members: members, resolver: resolver, logger: logger}
}

// MemberListResponse is the listing envelope.
type MemberListResponse struct {
	Members []*member.Member `json:"members"`
	Total   int              `json:"total"`
}

// List handles GET /api/members. Supports ?locationId= drill-down and
// ?status= verification-status filtering.
func (h *MemberHandlers) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	sc, err := h.resolver.Resolve(r.Context(), caller, r.URL.Query().Get("locationId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	filter := member.Filter{}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filter.Status = member.VerificationStatus(strings.ToUpper(status))
	}

	members, err := h.members.List(r.Context(), sc.Predicate, filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "member listing failed", "error", err)
		WriteServiceError(w, r, err)
		return
	}
	if members == nil {
		members = []*member.Member{}
	}
	writeJSON(w, http.StatusOK, MemberListResponse{Members: members, Total: len(members)})
}

// Get handles GET /api/members/{id}.
func (h *MemberHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "Member id is required")
		return
	}

	m, err := h.members.GetByID(r.Context(), id)
	if errors.Is(err, member.ErrMemberNotFound) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Member not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "member lookup failed", "error", err)
		WriteServiceError(w, r, err)
		return
	}

	sc, err := h.resolver.Resolve(r.Context(), caller, "")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if !sc.Predicate.Matches(m.Address.Ref()) {
		// Out-of-scope reads are reported as not found, not forbidden
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Member not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
