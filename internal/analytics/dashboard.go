package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mewshq/mews/internal/donation"
	"github.com/mewshq/mews/internal/institution"
	"github.com/mewshq/mews/internal/location"
	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/scope"
)

// ChildStats is one row of the per-child breakdown on the dashboard.
type ChildStats struct {
	LocationID string        `json:"location_id"`
	Name       string        `json:"name"`
	Type       location.Type `json:"type"`
	Members    int           `json:"members"`
	Families   int           `json:"families"`
}

// DashboardStats is the scoped summary the dashboard renders.
type DashboardStats struct {
	LocationName         string       `json:"location_name"`
	TotalMembers         int          `json:"total_members"`
	TotalFamilies        int          `json:"total_families"`
	PendingVerifications int          `json:"pending_verifications"`
	NewThisMonth         int          `json:"new_this_month"`
	Institutions         int          `json:"institutions"`
	DonationsTotal       int64        `json:"donations_total"`
	Breakdown            []ChildStats `json:"breakdown,omitempty"`
}

// Service computes scoped reports. All queries run through the scope's
// predicate, so a fail-closed scope yields all-zero stats rather than an
// error.
type Service struct {
	members      member.Repository
	institutions institution.Repository
	donations    donation.Repository
	logger       *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates an analytics Service.
func NewService(members member.Repository, institutions institution.Repository, donations donation.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		members:      members,
		institutions: institutions,
		donations:    donations,
		logger:       logger,
		now:          time.Now,
	}
}

// childField maps a breakdown child's level to the member address field its
// rows are counted by.
func childField(t location.Type) (scope.Field, error) {
	switch t {
	case location.TypeVillage:
		return scope.FieldVillage, nil
	case location.TypeMandal:
		return scope.FieldMandal, nil
	case location.TypeMunicipality:
		return scope.FieldMunicipality, nil
	case location.TypeDistrict:
		return scope.FieldDistrict, nil
	}
	return "", fmt.Errorf("no member field for location type %q", t)
}

// DashboardStats computes the dashboard summary for a resolved scope.
func (s *Service) DashboardStats(ctx context.Context, sc *scope.Scope) (*DashboardStats, error) {
	stats := &DashboardStats{LocationName: sc.LocationName}

	var err error
	stats.TotalMembers, err = s.members.Count(ctx, sc.Predicate, member.Filter{})
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	stats.TotalFamilies, err = s.members.CountFamilies(ctx, sc.Predicate)
	if err != nil {
		return nil, fmt.Errorf("count families: %w", err)
	}
	stats.PendingVerifications, err = s.members.Count(ctx, sc.Predicate,
		member.Filter{Status: member.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("count pending verifications: %w", err)
	}

	monthStart := startOfMonth(s.now().UTC())
	stats.NewThisMonth, err = s.members.Count(ctx, sc.Predicate,
		member.Filter{CreatedAfter: monthStart})
	if err != nil {
		return nil, fmt.Errorf("count new members: %w", err)
	}

	// A fail-closed scope must not leak unscoped institution or donation
	// totals either.
	if !sc.Predicate.MatchNone {
		stats.Institutions, err = s.institutions.CountMatching(ctx, sc.InstitutionNames)
		if err != nil {
			return nil, fmt.Errorf("count institutions: %w", err)
		}
		stats.DonationsTotal, err = s.donations.SumSuccessful(ctx)
		if err != nil {
			return nil, fmt.Errorf("sum donations: %w", err)
		}
	}

	for _, child := range sc.Children {
		row, err := s.childStats(ctx, child)
		if err != nil {
			// A single bad child node should not blank the whole dashboard.
			s.logger.WarnContext(ctx, "breakdown row failed",
				"location_id", child.ID, "error", err)
			continue
		}
		stats.Breakdown = append(stats.Breakdown, row)
	}
	return stats, nil
}

func (s *Service) childStats(ctx context.Context, child *location.Location) (ChildStats, error) {
	row := ChildStats{LocationID: child.ID, Name: child.Name, Type: child.Type}

	field, err := childField(child.Type)
	if err != nil {
		return row, err
	}
	pred := scope.In(field, []string{child.ID})

	row.Members, err = s.members.Count(ctx, pred, member.Filter{})
	if err != nil {
		return row, err
	}
	row.Families, err = s.members.CountFamilies(ctx, pred)
	if err != nil {
		return row, err
	}
	return row, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
