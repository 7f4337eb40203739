package member

import (
	"context"
	"testing"

	"github.com/mewshq/mews/internal/scope"
)

func seedMembers(t *testing.T, repo *InMemoryRepository) {
	t.Helper()
	members := []*Member{
		{
			Surname: "Gaddam", Name: "Ravi", Gender: "MALE", Age: 42,
			Occupation: "Farmer", MaritalStatus: "Married",
			MobileNumber:     "9000000001",
			RationCardNumber: "RC-100",
			Address:          Address{VillageID: "v1", MandalID: "m1", DistrictID: "d1", HouseNumber: "1-2"},
			VerificationStatus: StatusActive,
		},
		{
			Surname: "Gaddam", Name: "Lakshmi", Gender: "FEMALE", Age: 38,
			Occupation: "House Wife", MaritalStatus: "Married",
			MobileNumber:     "9000000002",
			RationCardNumber: "RC-100",
			Address:          Address{VillageID: "v1", MandalID: "m1", DistrictID: "d1", HouseNumber: "1-2"},
			VerificationStatus: StatusActive,
		},
		{
			Surname: "Kota", Name: "Suresh", Gender: "MALE", Age: 16,
			MobileNumber: "9000000003",
			Address:      Address{VillageID: "v1", MandalID: "m1", DistrictID: "d1", HouseNumber: "3-4"},
			VerificationStatus: StatusPending,
		},
		{
			Surname: "Vemula", Name: "Anita", Gender: "FEMALE", Age: 29,
			Occupation:   "Teacher",
			MobileNumber: "9000000004",
			Address:      Address{VillageID: "v2", MandalID: "m1", DistrictID: "d1", HouseNumber: "7"},
			VerificationStatus: StatusActive,
		},
		{
			Surname: "Rao", Name: "Prasad", Gender: "MALE", Age: 55,
			MobileNumber: "9000000005",
			Address:      Address{VillageID: "v9", MandalID: "m9", DistrictID: "d2"},
			VerificationStatus: StatusActive,
		},
	}
	for _, m := range members {
		if err := repo.Insert(context.Background(), m); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestCount_ScopedByVillage(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	n, err := repo.Count(context.Background(), scope.In(scope.FieldVillage, []string{"v1"}), Filter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 members in v1, got %d", n)
	}
}

func TestCount_FailClosedPredicateMatchesNothing(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	n, err := repo.Count(context.Background(), scope.None(), Filter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Fail-closed predicate must count zero members, got %d", n)
	}
}

func TestCount_StatusFilter(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	n, err := repo.Count(context.Background(),
		scope.In(scope.FieldVillage, []string{"v1"}), Filter{Status: StatusPending})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 pending member in v1, got %d", n)
	}
}

func TestCountFamilies_RationCardGroupsHousehold(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	// v1 has two members sharing RC-100 plus one member without a card.
	n, err := repo.CountFamilies(context.Background(), scope.In(scope.FieldVillage, []string{"v1"}))
	if err != nil {
		t.Fatalf("CountFamilies failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 households in v1, got %d", n)
	}
}

func TestCountFamilies_MissingHouseNumberFallsBackToUNK(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	// The d2 member has neither a ration card nor a house number.
	n, err := repo.CountFamilies(context.Background(), scope.In(scope.FieldDistrict, []string{"d2"}))
	if err != nil {
		t.Fatalf("CountFamilies failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 household in d2, got %d", n)
	}
}

func TestAggregateField_Gender(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	dist, err := repo.AggregateField(context.Background(),
		scope.In(scope.FieldDistrict, []string{"d1"}), FieldGender)
	if err != nil {
		t.Fatalf("AggregateField failed: %v", err)
	}
	if dist["MALE"] != 2 || dist["FEMALE"] != 2 {
		t.Errorf("Unexpected gender distribution: %v", dist)
	}
}

func TestAggregateField_UnsetValuesUnderEmptyKey(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	dist, err := repo.AggregateField(context.Background(), scope.All(), FieldOccupation)
	if err != nil {
		t.Fatalf("AggregateField failed: %v", err)
	}
	if dist[""] != 2 {
		t.Errorf("Expected 2 members with no occupation, got %d (%v)", dist[""], dist)
	}
}

func TestGetByMobile(t *testing.T) {
	repo := NewInMemoryRepository()
	seedMembers(t, repo)

	m, err := repo.GetByMobile(context.Background(), "9000000004")
	if err != nil {
		t.Fatalf("GetByMobile failed: %v", err)
	}
	if m.Name != "Anita" {
		t.Errorf("Expected Anita, got %s", m.Name)
	}

	if _, err := repo.GetByMobile(context.Background(), "9999999999"); err != ErrMemberNotFound {
		t.Errorf("Expected ErrMemberNotFound, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if err := repo.Update(context.Background(), &Member{ID: "missing"}); err != ErrMemberNotFound {
		t.Errorf("Expected ErrMemberNotFound, got %v", err)
	}
}
