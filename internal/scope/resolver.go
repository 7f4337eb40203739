package scope

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/location"
)

// ErrDrillDownForbidden is returned when a caller requests a drill-down
// location outside their jurisdiction.
var ErrDrillDownForbidden = errors.New("drill-down location is outside the caller's jurisdiction")

// UnscopedLocationName labels a global (unfiltered) scope in responses.
const UnscopedLocationName = "All Locations"

// Caller is the authenticated identity a scope is resolved for, supplied by
// the authentication middleware.
type Caller struct {
	AdminID string
	Role    identity.Role

	// AssignedLocationID is nil for global callers (SUPER_ADMIN).
	AssignedLocationID *string
}

// Scope is the result of resolving a caller (and optional drill-down) into a
// query filter. It is returned as an explicit struct; nothing is passed
// between request stages through shared mutable state.
type Scope struct {
	Caller Caller

	// Target is the effective target location. Nil for global scope and for
	// fail-closed scopes with no resolvable target.
	Target *location.Location

	// LocationName is the display name of the target, or "All Locations".
	LocationName string

	// Predicate filters member queries to the target subtree.
	Predicate Predicate

	// Children lists the direct child nodes used for per-child breakdowns:
	// villages under a mandal target, mandals and municipalities under a
	// district target. Empty otherwise.
	Children []*location.Location

	// InstitutionNames are the location names institution address matching
	// keys on. Empty means institutions are not filtered at this level.
	InstitutionNames []string
}

// Resolver computes scopes from the location tree.
type Resolver struct {
	locations location.Repository
	sets      LocationSetResolver
	logger    *slog.Logger
	metrics   *Metrics
}

// NewResolver creates a Resolver. sets may be nil, in which case a plain
// NameSetResolver is used. metrics may be nil.
func NewResolver(locations location.Repository, sets LocationSetResolver, logger *slog.Logger, metrics *Metrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if sets == nil {
		sets = NewNameSetResolver(locations, logger, metrics)
	}
	return &Resolver{locations: locations, sets: sets, logger: logger, metrics: metrics}
}

// Resolve maps a caller and an optional drill-down location id to the scope
// that filters subsequent data queries.
//
// The effective target is the drill-down location when one is requested and
// the caller is authorized to view it; otherwise the caller's assigned
// location. An unauthorized drill-down returns ErrDrillDownForbidden. A
// caller with no effective target gets full visibility only as SUPER_ADMIN;
// every other role fails closed.
func (r *Resolver) Resolve(ctx context.Context, caller Caller, drillDownID string) (*Scope, error) {
	targetID := ""
	if caller.AssignedLocationID != nil {
		targetID = *caller.AssignedLocationID
	}

	if drillDownID != "" && drillDownID != targetID {
		ok, err := r.VerifyJurisdiction(ctx, caller, drillDownID)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.WarnContext(ctx, "drill-down denied",
				"admin_id", caller.AdminID,
				"role", caller.Role,
				"drill_down_id", drillDownID)
			return nil, ErrDrillDownForbidden
		}
		targetID = drillDownID
	}

	if targetID == "" {
		if caller.Role == identity.RoleSuperAdmin {
			r.record(caller, "global")
			return &Scope{
				Caller:       caller,
				LocationName: UnscopedLocationName,
				Predicate:    All(),
			}, nil
		}
		return r.failClosed(ctx, caller, "no_assigned_location"), nil
	}

	target, err := r.locations.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, location.ErrLocationNotFound) {
			// Unresolvable target: fail closed for everyone, including a
			// super admin who drilled into a stale id.
			return r.failClosed(ctx, caller, "target_not_found"), nil
		}
		return nil, err
	}

	sc := &Scope{Caller: caller, Target: target, LocationName: target.Name}
	switch target.Type {
	case location.TypeVillage:
		if err := r.resolveNameSet(ctx, sc, FieldVillage); err != nil {
			return nil, err
		}
		sc.InstitutionNames = []string{target.Name}

	case location.TypeMunicipality:
		if err := r.resolveNameSet(ctx, sc, FieldMunicipality); err != nil {
			return nil, err
		}
		sc.InstitutionNames = []string{target.Name}

	case location.TypeMandal:
		if err := r.resolveNameSet(ctx, sc, FieldMandal); err != nil {
			return nil, err
		}
		sc.InstitutionNames = []string{target.Name}
		sc.Children, err = r.locations.FindChildren(ctx, target.ID, location.TypeVillage)
		if err != nil {
			return nil, err
		}

	case location.TypeDistrict:
		sc.Predicate = In(FieldDistrict, []string{target.ID})
		mandals, err := r.locations.FindChildren(ctx, target.ID, location.TypeMandal)
		if err != nil {
			return nil, err
		}
		municipalities, err := r.locations.FindChildren(ctx, target.ID, location.TypeMunicipality)
		if err != nil {
			return nil, err
		}
		sc.Children = append(mandals, municipalities...)
		sc.InstitutionNames = append([]string{target.Name}, childNames(sc.Children)...)

	case location.TypeState:
		districts, err := r.locations.FindChildren(ctx, target.ID, location.TypeDistrict)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(districts))
		for i, d := range districts {
			ids[i] = d.ID
		}
		// A state with no districts yields the empty set, which In turns
		// into the fail-closed predicate.
		sc.Predicate = In(FieldDistrict, ids)

	default:
		// CONSTITUENCY and WARD nodes are not admin scoping levels.
		r.logger.WarnContext(ctx, "unsupported scope level",
			"location_id", target.ID, "type", target.Type)
		return r.failClosed(ctx, caller, "unsupported_level"), nil
	}

	r.record(caller, string(target.Type))
	return sc, nil
}

// VerifyJurisdiction reports whether the caller may view targetID: the
// target must be the caller's own location, its direct child, or list it
// in its ancestors. Only SUPER_ADMIN is global; any other caller without
// an assigned location holds jurisdiction over nothing.
func (r *Resolver) VerifyJurisdiction(ctx context.Context, caller Caller, targetID string) (bool, error) {
	if caller.AssignedLocationID == nil {
		return caller.Role == identity.RoleSuperAdmin, nil
	}
	if targetID == "" {
		return false, nil
	}
	if targetID == *caller.AssignedLocationID {
		return true, nil
	}
	target, err := r.locations.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, location.ErrLocationNotFound) {
			return false, nil
		}
		return false, err
	}
	return target.HasAncestor(*caller.AssignedLocationID), nil
}

// resolveNameSet fills sc.Predicate with the same-name-and-type node set of
// the target keyed on field.
func (r *Resolver) resolveNameSet(ctx context.Context, sc *Scope, field Field) error {
	ids, err := r.sets.ResolveSet(ctx, sc.Target)
	if err != nil {
		return err
	}
	sc.Predicate = In(field, ids)
	return nil
}

// failClosed builds the empty-result scope and records it.
func (r *Resolver) failClosed(ctx context.Context, caller Caller, reason string) *Scope {
	r.logger.WarnContext(ctx, "scope resolution failed closed",
		"admin_id", caller.AdminID,
		"role", caller.Role,
		"reason", reason)
	if r.metrics != nil {
		r.metrics.FailClosed(string(caller.Role), reason)
	}
	return &Scope{
		Caller:       caller,
		LocationName: UnscopedLocationName,
		Predicate:    None(),
	}
}

// record counts one successful resolution.
func (r *Resolver) record(caller Caller, level string) {
	if r.metrics != nil {
		m := r.metrics
		m.Resolution(string(caller.Role), level)
	}
}

// childNames extracts the names of breakdown children.
func childNames(children []*location.Location) []string {
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
	}
	return names
}
