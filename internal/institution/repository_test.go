package institution

import (
	"context"
	"testing"
)

func seedInstitutions(t *testing.T, repo *InMemoryRepository) {
	t.Helper()
	insts := []*Institution{
		{Name: "ZPHS Chityala", Type: "SCHOOL", FullAddress: "Main Road, Chityala Mandal, Nalgonda District", IsActive: true},
		{Name: "Sri Rama Temple", Type: "TEMPLE", FullAddress: "Peddakaparthy Village, Chityala, Nalgonda", IsActive: true},
		{Name: "Community Hall", Type: "HALL", FullAddress: "Miryalaguda Town, Nalgonda District", IsActive: true},
		{Name: "Govt Junior College", Type: "COLLEGE", FullAddress: "Warangal City", IsActive: true},
	}
	for _, inst := range insts {
		if err := repo.Insert(context.Background(), inst); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestCountMatching_EmptyNamesCountsAll(t *testing.T) {
	repo := NewInMemoryRepository()
	seedInstitutions(t, repo)

	n, err := repo.CountMatching(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected all 4 institutions with no names, got %d", n)
	}
}

func TestCountMatching_CaseInsensitiveSubstring(t *testing.T) {
	repo := NewInMemoryRepository()
	seedInstitutions(t, repo)

	n, err := repo.CountMatching(context.Background(), []string{"chityala"})
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 Chityala institutions, got %d", n)
	}
}

func TestCountMatching_AnyNameMatches(t *testing.T) {
	repo := NewInMemoryRepository()
	seedInstitutions(t, repo)

	// District scope sends the district name plus every child name.
	n, err := repo.CountMatching(context.Background(),
		[]string{"Nalgonda", "Chityala", "Miryalaguda"})
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 institutions in the district, got %d", n)
	}
}

func TestListMatching_OrderedByName(t *testing.T) {
	repo := NewInMemoryRepository()
	seedInstitutions(t, repo)

	out, err := repo.ListMatching(context.Background(), []string{"Nalgonda"})
	if err != nil {
		t.Fatalf("ListMatching failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected 3 institutions, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Name > out[i].Name {
			t.Errorf("Results not ordered by name: %q before %q", out[i-1].Name, out[i].Name)
		}
	}
}

func TestMatchClause_EscapesPatternMetacharacters(t *testing.T) {
	where, args := matchClause([]string{"K_thar% Colony", `Back\slash`, "  "})
	if where != "(full_address ILIKE $1 OR full_address ILIKE $2)" {
		t.Errorf("Unexpected where clause: %q", where)
	}
	want := []any{`%K\_thar\% Colony%`, `%Back\\slash%`}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrInstitutionNotFound {
		t.Errorf("Expected ErrInstitutionNotFound, got %v", err)
	}
}
