package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mewshq/mews/internal/adminmgmt"
	"github.com/mewshq/mews/internal/analytics"
	"github.com/mewshq/mews/internal/audit"
	"github.com/mewshq/mews/internal/donation"
	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/institution"
	"github.com/mewshq/mews/internal/location"
	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/middleware"
	"github.com/mewshq/mews/internal/notify"
	"github.com/mewshq/mews/internal/scope"
)

// apiFixture wires the handler stack onto in-memory repositories with a
// small state > district > mandal > village tree.
type apiFixture struct {
	admins       *identity.InMemoryRepository
	members      *member.InMemoryRepository
	locs         *location.InMemoryRepository
	institutions *institution.InMemoryRepository
	donations    *donation.InMemoryRepository
	audits       *audit.InMemoryRepository
	resolver     *scope.Resolver

	dashboard  *DashboardHandlers
	memberH    *MemberHandlers
	management *ManagementHandlers
}

func strPtr(s string) *string { return &s }

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	locs := location.NewInMemoryRepository()

	tree := []*location.Location{
		{ID: "s1", Name: "Telangana", Type: location.TypeState},
		{ID: "d1", Name: "Nalgonda", Type: location.TypeDistrict, ParentID: strPtr("s1"),
			Ancestors: []location.Ancestor{{LocationID: "s1", Name: "Telangana", Type: location.TypeState}}},
		{ID: "d2", Name: "Warangal", Type: location.TypeDistrict, ParentID: strPtr("s1"),
			Ancestors: []location.Ancestor{{LocationID: "s1", Name: "Telangana", Type: location.TypeState}}},
		{ID: "m1", Name: "Chityala", Type: location.TypeMandal, ParentID: strPtr("d1"),
			Ancestors: []location.Ancestor{
				{LocationID: "s1", Name: "Telangana", Type: location.TypeState},
				{LocationID: "d1", Name: "Nalgonda", Type: location.TypeDistrict}}},
		{ID: "v1", Name: "Peddakaparthy", Type: location.TypeVillage, ParentID: strPtr("m1"),
			Ancestors: []location.Ancestor{
				{LocationID: "s1", Name: "Telangana", Type: location.TypeState},
				{LocationID: "d1", Name: "Nalgonda", Type: location.TypeDistrict},
				{LocationID: "m1", Name: "Chityala", Type: location.TypeMandal}}},
	}
	for _, loc := range tree {
		if err := locs.Insert(context.Background(), loc); err != nil {
			t.Fatalf("Insert location failed: %v", err)
		}
	}

	admins := identity.NewInMemoryRepository()
	members := member.NewInMemoryRepository()
	institutions := institution.NewInMemoryRepository()
	donations := donation.NewInMemoryRepository()
	audits := audit.NewInMemoryRepository()

	resolver := scope.NewResolver(locs, nil, nil, nil)
	analyticsSvc := analytics.NewService(members, institutions, donations, nil)
	tx := adminmgmt.NewInMemoryTxStore(admins, members)
	mgmtSvc := adminmgmt.NewService(admins, members, locs, resolver, tx, notify.NewLogNotifier(nil), nil)

	return &apiFixture{
		admins:       admins,
		members:      members,
		locs:         locs,
		institutions: institutions,
		donations:    donations,
		audits:       audits,
		resolver:     resolver,
		dashboard:    NewDashboardHandlers(resolver, analyticsSvc, nil),
		memberH:      NewMemberHandlers(members, resolver, nil),
		management:   NewManagementHandlers(mgmtSvc, audits, nil),
	}
}

func (f *apiFixture) addMember(t *testing.T, m *member.Member) *member.Member {
	t.Helper()
	if m.Role == "" {
		m.Role = identity.RoleMember
	}
	if m.VerificationStatus == "" {
		m.VerificationStatus = member.StatusActive
	}
	if err := f.members.Insert(context.Background(), m); err != nil {
		t.Fatalf("Insert member failed: %v", err)
	}
	return m
}

func districtCaller() scope.Caller {
	return scope.Caller{AdminID: "caller-1", Role: identity.RoleDistrictAdmin,
		AssignedLocationID: strPtr("d1")}
}

// authedRequest builds a request carrying caller on its context, the way
// the auth middleware does for real traffic.
func authedRequest(method, target string, body io.Reader, caller scope.Caller) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.SetCaller(req.Context(), caller)
	ctx = middleware.SetCallerID(ctx, caller.AdminID)
	return req.WithContext(ctx)
}
