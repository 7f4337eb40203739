// Package scope resolves a caller's role and assigned location into the
// location-subtree filter that scopes every member and institution query.
// Resolution fails closed: whenever the target location is missing or
// unresolvable for a non-super caller, the resulting predicate matches no
// rows, never all of them.
package scope

// Field names the member address reference a predicate filters on.
type Field string

// Address fields a predicate can key on.
const (
	FieldVillage      Field = "address.village"
	FieldMandal       Field = "address.mandal"
	FieldMunicipality Field = "address.municipality"
	FieldDistrict     Field = "address.district"
)

// AddressRef carries the location references of one member row, for
// in-memory predicate evaluation.
type AddressRef struct {
	VillageID      string
	MandalID       string
	MunicipalityID string
	DistrictID     string
}

// Predicate is a derived, per-request filter over the member collection.
// Exactly one of MatchAll, MatchNone, or a Field+LocationIDs restriction
// applies.
type Predicate struct {
	MatchAll  bool
	MatchNone bool

	Field       Field
	LocationIDs []string
}

// All returns the unscoped predicate (full visibility).
func All() Predicate {
	return Predicate{MatchAll: true}
}

// None returns the fail-closed predicate that matches no rows.
func None() Predicate {
	return Predicate{MatchNone: true}
}

// In returns a predicate matching rows whose field is one of ids. An empty
// id set fails closed rather than degrading to an unscoped query.
func In(field Field, ids []string) Predicate {
	if len(ids) == 0 {
		return None()
	}
	return Predicate{Field: field, LocationIDs: ids}
}

// fieldValue picks the address reference the predicate's field keys on.
func (p Predicate) fieldValue(ref AddressRef) string {
	switch p.Field {
	case FieldVillage:
		return ref.VillageID
	case FieldMandal:
		return ref.MandalID
	case FieldMunicipality:
		return ref.MunicipalityID
	case FieldDistrict:
		return ref.DistrictID
	}
	return ""
}

// Matches evaluates the predicate against one member row's address
// references.
func (p Predicate) Matches(ref AddressRef) bool {
	if p.MatchNone {
		return false
	}
	if p.MatchAll {
		return true
	}
	val := p.fieldValue(ref)
	if val == "" {
		return false
	}
	for _, id := range p.LocationIDs {
		if id == val {
			return true
		}
	}
	return false
}
