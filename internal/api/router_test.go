package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mewshq/mews/internal/auth"
	"github.com/mewshq/mews/internal/identity"
)

// newRouter builds the full mux over the shared fixture, with JWT auth in
// front of the protected surface.
func newRouter(t *testing.T, f *apiFixture) (http.Handler, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(testSecret)
	authHandlers := NewAuthHandlers(f.admins, jwtService, f.audits, nil)
	healthHandlers := NewHealthHandlers(HealthHandlersConfig{})

	return NewRouter(RouterConfig{
		Health:      healthHandlers,
		Auth:        authHandlers,
		Dashboard:   f.dashboard,
		Members:     f.memberH,
		Management:  f.management,
		JWTService:  jwtService,
		AdminLookup: f.admins,
	}), jwtService
}

func TestRouter_LoginThenDashboard(t *testing.T) {
	f := newAPIFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("Mews@9000000001"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	if err := f.admins.Create(context.Background(), &identity.Admin{
		Username: "9000000001", PasswordHash: string(hash),
		Role: identity.RoleDistrictAdmin, AssignedLocationID: strPtr("d1"),
		IsActive: true,
	}); err != nil {
		t.Fatalf("Create admin failed: %v", err)
	}
	router, _ := newRouter(t, f)

	login := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"9000000001","password":"Mews@9000000001"}`))
	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, login)
	if lw.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", lw.Code, lw.Body.String())
	}
	var tokens TokenResponse
	if err := json.NewDecoder(lw.Body).Decode(&tokens); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard-stats", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_ProtectedWithoutToken(t *testing.T) {
	f := newAPIFixture(t)
	router, _ := newRouter(t, f)

	paths := []string{
		"/api/admin/dashboard-stats",
		"/api/admin/analytics",
		"/api/members",
		"/api/admin/management",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: expected 401, got %d", path, w.Code)
		}
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	router, _ := newRouter(t, f)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
}

func TestRouter_UnknownPathReturnsStructured404(t *testing.T) {
	f := newAPIFixture(t)
	router, _ := newRouter(t, f)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("404 body is not the error envelope: %v", err)
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
}

func TestRouter_DeactivatedAdminRejectedDespiteValidToken(t *testing.T) {
	f := newAPIFixture(t)
	router, jwtService := newRouter(t, f)

	admin := &identity.Admin{Username: "9000000002", Role: identity.RoleDistrictAdmin,
		AssignedLocationID: strPtr("d1"), IsActive: true}
	if err := f.admins.Create(context.Background(), admin); err != nil {
		t.Fatalf("Create admin failed: %v", err)
	}
	token, err := jwtService.GenerateAccessToken(admin.ID, string(admin.Role), "d1")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	admin.IsActive = false
	if err := f.admins.Update(context.Background(), admin); err != nil {
		t.Fatalf("Update admin failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard-stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated admin must be rejected, got %d", w.Code)
	}
}
