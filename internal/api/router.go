package api

import (
	"net/http"

	"github.com/mewshq/mews/internal/auth"
	"github.com/mewshq/mews/internal/middleware"
)

// RouterConfig carries the handlers and middleware dependencies for the API
// surface.
type RouterConfig struct {
	Health     *HealthHandlers
	Auth       *AuthHandlers
	Dashboard  *DashboardHandlers
	Members    *MemberHandlers
	Management *ManagementHandlers

	JWTService *auth.JWTService

	// AdminLookup re-reads the admin record on every authenticated request;
	// nil trusts token claims alone (tests, local development).
	AdminLookup middleware.AdminLookup
}

// NewRouter builds the API mux. Health and login endpoints are public;
// everything under /api/admin and /api/members requires a valid access
// token.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/health/ready", cfg.Health.Ready)

	mux.HandleFunc("/api/auth/login", cfg.Auth.Login)
	mux.HandleFunc("/api/auth/refresh", cfg.Auth.Refresh)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /api/admin/dashboard-stats", cfg.Dashboard.DashboardStats)
	authed.HandleFunc("GET /api/admin/analytics", cfg.Dashboard.Analytics)

	authed.HandleFunc("GET /api/members", cfg.Members.List)
	authed.HandleFunc("GET /api/members/{id}", cfg.Members.Get)

	authed.HandleFunc("GET /api/admin/management", cfg.Management.ListSubordinates)
	authed.HandleFunc("POST /api/admin/management", cfg.Management.CreateAdmin)
	authed.HandleFunc("PUT /api/admin/management/{id}", cfg.Management.UpdateAdmin)
	authed.HandleFunc("DELETE /api/admin/management/{id}", cfg.Management.DeleteAdmin)
	authed.HandleFunc("GET /api/admin/management/locations", cfg.Management.ChildLocations)
	authed.HandleFunc("POST /api/admin/management/search-member", cfg.Management.SearchMember)
	authed.HandleFunc("POST /api/admin/management/promote-member", cfg.Management.PromoteMember)
	authed.HandleFunc("GET /api/admin/management/orphaned-promotions", cfg.Management.OrphanedPromotions)

	requireAuth := middleware.Auth(cfg.JWTService, cfg.AdminLookup)
	mux.Handle("/api/admin/", requireAuth(authed))
	mux.Handle("/api/members", requireAuth(authed))
	mux.Handle("/api/members/", requireAuth(authed))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"mews-api","version":"0.1.0"}`))
	})

	return mux
}
