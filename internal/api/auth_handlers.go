package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mewshq/mews/internal/audit"
	"github.com/mewshq/mews/internal/auth"
	"github.com/mewshq/mews/internal/identity"
)

// AuthHandlers provides login and token-refresh endpoints.
type AuthHandlers struct {
	admins identity.Repository
	jwt    *auth.JWTService
	audits audit.Repository
	logger *slog.Logger
}

// NewAuthHandlers creates a new auth handler. A nil audits repository
// disables audit recording.
func NewAuthHandlers(admins identity.Repository, jwt *auth.JWTService, audits audit.Repository, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{admins: admins, jwt: jwt, audits: audits, logger: logger}
}

// recordAudit logs an authentication event. Both successes and failures are
// recorded so credential probing shows up in review.
func (h *AuthHandlers) recordAudit(r *http.Request, entityID, action, outcome string) {
	if h.audits == nil {
		return
	}
	if err := audit.LogOutcomeFromRequest(r, h.audits, "session", entityID, action, outcome); err != nil {
		h.logger.ErrorContext(r.Context(), "audit logging failed",
			"action", action, "error", err)
	}
}

// LoginRequest is the login payload. Promoted admins log in with their
// mobile number as the username.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a fresh token pair and the authenticated admin.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Admin        *identity.Admin `json:"admin"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "Username and password are required")
		return
	}

	admin, err := h.admins.GetByUsername(r.Context(), req.Username)
	if errors.Is(err, identity.ErrAdminNotFound) {
		// Same response for unknown usernames and wrong passwords
		h.recordAudit(r, req.Username, "login", audit.OutcomeFailure)
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "login lookup failed", "error", err)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		h.recordAudit(r, admin.ID, "login", audit.OutcomeFailure)
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid credentials")
		return
	}
	if !admin.IsActive {
		h.recordAudit(r, admin.ID, "login", audit.OutcomeFailure)
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Account is deactivated")
		return
	}

	h.recordAudit(r, admin.ID, "login", audit.OutcomeSuccess)
	h.writeTokenPair(w, r, admin)
}

// RefreshRequest is the token-refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/auth/refresh. The admin record is re-read so the
// new access token carries the current role and location, not the ones held
// at login time.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "Refresh token is required")
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken)
	if err != nil || claims.Type != auth.TokenTypeRefresh {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid or expired refresh token")
		return
	}

	admin, err := h.admins.GetByID(r.Context(), claims.Subject)
	if errors.Is(err, identity.ErrAdminNotFound) {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Account no longer exists")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "refresh lookup failed", "error", err)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
		return
	}
	if !admin.IsActive {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Account is deactivated")
		return
	}

	h.recordAudit(r, admin.ID, "refresh_token", audit.OutcomeSuccess)
	h.writeTokenPair(w, r, admin)
}

// writeTokenPair issues a fresh access and refresh token for admin.
func (h *AuthHandlers) writeTokenPair(w http.ResponseWriter, r *http.Request, admin *identity.Admin) {
	assigned := ""
	if admin.AssignedLocationID != nil {
		assigned = *admin.AssignedLocationID
	}

	access, err := h.jwt.GenerateAccessToken(admin.ID, string(admin.Role), assigned)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "access token generation failed", "error", err)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
		return
	}
	refresh, err := h.jwt.GenerateRefreshToken(admin.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "refresh token generation failed", "error", err)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
		return
	}

	h.logger.InfoContext(r.Context(), "tokens issued",
		"admin_id", admin.ID, "role", admin.Role)
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Admin:        admin,
	})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
