package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mewshq/mews/internal/adminmgmt"
	"github.com/mewshq/mews/internal/audit"
	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/location"
	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/scope"
)

// ManagementHandlers exposes the admin-management workflow: listing and
// maintaining subordinate admins, browsing child locations, and the
// member-promotion flow. Role and jurisdiction checks live in the service;
// handlers only translate HTTP.
type ManagementHandlers struct {
	svc    *adminmgmt.Service
	audits audit.Repository
	logger *slog.Logger
}

// NewManagementHandlers creates a new management handler. A nil audits
// repository disables audit recording.
func NewManagementHandlers(svc *adminmgmt.Service, audits audit.Repository, logger *slog.Logger) *ManagementHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManagementHandlers{svc: svc, audits: audits, logger: logger}
}

// recordAudit logs a completed management action. The action already
// happened, so audit failures are surfaced in the logs rather than turned
// into a client error.
func (h *ManagementHandlers) recordAudit(r *http.Request, entityType, entityID, action string) {
	if h.audits == nil {
		return
	}
	if err := audit.LogAccessFromRequest(r, h.audits, entityType, entityID, action); err != nil {
		h.logger.ErrorContext(r.Context(), "audit logging failed",
			"action", action, "entity_id", entityID, "error", err)
	}
}

// caller pulls the authenticated caller or writes 401.
func (h *ManagementHandlers) caller(w http.ResponseWriter, r *http.Request) (scope.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
	}
	return caller, ok
}

// AdminListResponse is the subordinate listing envelope.
type AdminListResponse struct {
	Admins []*identity.Admin `json:"admins"`
	Total  int               `json:"total"`
}

// ListSubordinates handles GET /api/admin/management.
func (h *ManagementHandlers) ListSubordinates(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	admins, err := h.svc.ListSubordinates(r.Context(), caller)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "subordinate listing failed", "error", err)
		WriteServiceError(w, r, err)
		return
	}
	if admins == nil {
		admins = []*identity.Admin{}
	}
	writeJSON(w, http.StatusOK, AdminListResponse{Admins: admins, Total: len(admins)})
}

// CreateAdminRequest is the direct admin-creation payload.
type CreateAdminRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	LocationID   string `json:"location_id"`
}

// CreateAdmin handles POST /api/admin/management.
func (h *ManagementHandlers) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	admin, err := h.svc.CreateAdmin(r.Context(), caller, adminmgmt.CreateRequest{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		Password:     req.Password,
		Role:         identity.Role(req.Role),
		LocationID:   req.LocationID,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.recordAudit(r, "admin", admin.ID, "create_admin")
	writeJSON(w, http.StatusCreated, admin)
}

// UpdateAdminRequest carries the mutable admin fields; omitted fields are
// left unchanged.
type UpdateAdminRequest struct {
	Email        *string `json:"email"`
	MobileNumber *string `json:"mobile_number"`
	IsActive     *bool   `json:"is_active"`
	LocationID   *string `json:"location_id"`
}

// UpdateAdmin handles PUT /api/admin/management/{id}.
func (h *ManagementHandlers) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req UpdateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	admin, err := h.svc.UpdateAdmin(r.Context(), caller, r.PathValue("id"), adminmgmt.UpdateRequest{
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		IsActive:     req.IsActive,
		LocationID:   req.LocationID,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.recordAudit(r, "admin", admin.ID, "update_admin")
	writeJSON(w, http.StatusOK, admin)
}

// DeleteAdmin handles DELETE /api/admin/management/{id}. Promoted admins are
// demoted rather than plainly deleted, so the linked member is reset too.
func (h *ManagementHandlers) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAdmin(r.Context(), caller, r.PathValue("id")); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.recordAudit(r, "admin", r.PathValue("id"), "delete_admin")
	w.WriteHeader(http.StatusNoContent)
}

// LocationListResponse is the child-location listing envelope.
type LocationListResponse struct {
	Locations []*location.Location `json:"locations"`
	Total     int                  `json:"total"`
}

// ChildLocations handles GET /api/admin/management/locations.
// Requires ?parentId=; ?type= narrows to one administrative level.
func (h *ManagementHandlers) ChildLocations(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var t location.Type
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		t = location.Type(strings.ToUpper(raw))
		if !t.Valid() {
			WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "Unknown location type")
			return
		}
	}

	locations, err := h.svc.ChildLocations(r.Context(), caller, r.URL.Query().Get("parentId"), t)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if locations == nil {
		locations = []*location.Location{}
	}
	writeJSON(w, http.StatusOK, LocationListResponse{Locations: locations, Total: len(locations)})
}

// SearchMemberRequest is the scoped member-search payload.
type SearchMemberRequest struct {
	MobileNumber string `json:"mobile_number"`
}

// SearchMemberResponse wraps the matched member.
type SearchMemberResponse struct {
	Member *member.Member `json:"member"`
}

// SearchMember handles POST /api/admin/management/search-member.
func (h *ManagementHandlers) SearchMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req SearchMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	m, err := h.svc.SearchMemberByMobile(r.Context(), caller, req.MobileNumber)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.recordAudit(r, "member", m.ID, "search_member")
	writeJSON(w, http.StatusOK, SearchMemberResponse{Member: m})
}

// PromoteMemberRequest is the promotion payload.
type PromoteMemberRequest struct {
	MemberID   string `json:"member_id"`
	Role       string `json:"role"`
	LocationID string `json:"location_id"`
}

// PromoteMember handles POST /api/admin/management/promote-member.
func (h *ManagementHandlers) PromoteMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req PromoteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.svc.PromoteMember(r.Context(), caller, adminmgmt.PromoteRequest{
		MemberID:   req.MemberID,
		Role:       identity.Role(req.Role),
		LocationID: req.LocationID,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.recordAudit(r, "member", req.MemberID, "promote_member")
	writeJSON(w, http.StatusCreated, result)
}

// OrphanedPromotionsResponse lists member ids holding an admin role without
// a matching login.
type OrphanedPromotionsResponse struct {
	MemberIDs []string `json:"member_ids"`
	Total     int      `json:"total"`
}

// OrphanedPromotions handles GET /api/admin/management/orphaned-promotions.
func (h *ManagementHandlers) OrphanedPromotions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ids, err := h.svc.FindOrphanedPromotions(r.Context(), caller)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, OrphanedPromotionsResponse{MemberIDs: ids, Total: len(ids)})
}
