package scope

import "testing"

func TestPredicate_MatchNone(t *testing.T) {
	p := None()
	if p.Matches(AddressRef{VillageID: "v1", DistrictID: "d1"}) {
		t.Error("None() must match no rows")
	}
}

func TestPredicate_MatchAll(t *testing.T) {
	p := All()
	if !p.Matches(AddressRef{}) {
		t.Error("All() must match every row, including empty addresses")
	}
}

func TestPredicate_In(t *testing.T) {
	p := In(FieldVillage, []string{"v1", "v2"})

	if !p.Matches(AddressRef{VillageID: "v2"}) {
		t.Error("Expected village v2 to match")
	}
	if p.Matches(AddressRef{VillageID: "v3"}) {
		t.Error("Village v3 must not match")
	}
	// The field is what matters: a matching id on another field is no match.
	if p.Matches(AddressRef{MandalID: "v1"}) {
		t.Error("Mandal id must not satisfy a village predicate")
	}
	// Rows without the keyed reference never match.
	if p.Matches(AddressRef{}) {
		t.Error("Empty address must not match a scoped predicate")
	}
}

func TestPredicate_In_EmptySetFailsClosed(t *testing.T) {
	p := In(FieldDistrict, nil)
	if !p.MatchNone {
		t.Error("Empty id set must produce the fail-closed predicate")
	}
	if p.Matches(AddressRef{DistrictID: "d1"}) {
		t.Error("Fail-closed predicate must not match")
	}
}
