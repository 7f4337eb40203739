package member

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mewshq/mews/internal/scope"
)

// Field selects which column AggregateField groups by.
type Field string

// Aggregatable fields.
const (
	FieldGender        Field = "gender"
	FieldOccupation    Field = "occupation"
	FieldMaritalStatus Field = "marital_status"
	FieldBloodGroup    Field = "blood_group"
	FieldAge           Field = "age"
)

// Filter narrows a scoped query beyond the location predicate. Zero values
// mean "no constraint".
type Filter struct {
	Status         VerificationStatus
	CreatedAfter   time.Time
	HeadOfFamilyID string
}

// Repository defines member persistence. Every read takes a scope.Predicate
// so callers can never query outside their resolved jurisdiction.
type Repository interface {
	// GetByID returns the member or ErrMemberNotFound.
	GetByID(ctx context.Context, id string) (*Member, error)

	// GetByMobile returns the member with the given mobile number or
	// ErrMemberNotFound. Mobile numbers are unique per member.
	GetByMobile(ctx context.Context, mobile string) (*Member, error)

	// Count returns the number of members matching the predicate and filter.
	Count(ctx context.Context, pred scope.Predicate, f Filter) (int, error)

	// CountFamilies returns the number of distinct households in scope.
	// Members sharing a ration card number form one household; members
	// without one are grouped by house number within their village.
	CountFamilies(ctx context.Context, pred scope.Predicate) (int, error)

	// AggregateField returns value -> count for the given field over the
	// members in scope. Unset values are returned under the empty key.
	AggregateField(ctx context.Context, pred scope.Predicate, field Field) (map[string]int, error)

	// List returns the members in scope matching the filter, newest first.
	List(ctx context.Context, pred scope.Predicate, f Filter) ([]*Member, error)

	// Insert stores a new member, assigning an id when empty.
	Insert(ctx context.Context, m *Member) error

	// Update replaces the stored member or returns ErrMemberNotFound.
	Update(ctx context.Context, m *Member) error
}

// familyKey groups members into households. Original behavior: ration card
// wins; otherwise house number (UNK when missing) joined with the village id.
func familyKey(m *Member) string {
	if rc := strings.TrimSpace(m.RationCardNumber); rc != "" {
		return rc
	}
	house := strings.TrimSpace(m.Address.HouseNumber)
	if house == "" {
		house = "UNK"
	}
	return house + "_" + m.Address.VillageID
}

func (f Filter) matches(m *Member) bool {
	if f.Status != "" && m.VerificationStatus != f.Status {
		return false
	}
	if !f.CreatedAfter.IsZero() && !m.CreatedAt.After(f.CreatedAfter) {
		return false
	}
	if f.HeadOfFamilyID != "" && m.HeadOfFamilyID != f.HeadOfFamilyID {
		return false
	}
	return true
}

func fieldValue(m *Member, field Field) string {
	switch field {
	case FieldGender:
		return m.Gender
	case FieldOccupation:
		return m.Occupation
	case FieldMaritalStatus:
		return m.MaritalStatus
	case FieldBloodGroup:
		return m.BloodGroup
	case FieldAge:
		if m.Age <= 0 {
			return ""
		}
		return strconv.Itoa(m.Age)
	}
	return ""
}

// InMemoryRepository is a mutex-guarded map store used in tests and local
// development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	members map[string]*Member
}

// NewInMemoryRepository creates an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{members: make(map[string]*Member)}
}

// GetByID implements Repository.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

// GetByMobile implements Repository.
func (r *InMemoryRepository) GetByMobile(ctx context.Context, mobile string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.MobileNumber == mobile {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrMemberNotFound
}

// Count implements Repository.
func (r *InMemoryRepository) Count(ctx context.Context, pred scope.Predicate, f Filter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, m := range r.members {
		if pred.Matches(m.Address.Ref()) && f.matches(m) {
			n++
		}
	}
	return n, nil
}

// CountFamilies implements Repository.
func (r *InMemoryRepository) CountFamilies(ctx context.Context, pred scope.Predicate) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make(map[string]struct{})
	for _, m := range r.members {
		if pred.Matches(m.Address.Ref()) {
			keys[familyKey(m)] = struct{}{}
		}
	}
	return len(keys), nil
}

// AggregateField implements Repository.
func (r *InMemoryRepository) AggregateField(ctx context.Context, pred scope.Predicate, field Field) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, m := range r.members {
		if pred.Matches(m.Address.Ref()) {
			out[fieldValue(m, field)]++
		}
	}
	return out, nil
}

// List implements Repository.
func (r *InMemoryRepository) List(ctx context.Context, pred scope.Predicate, f Filter) ([]*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Member
	for _, m := range r.members {
		if pred.Matches(m.Address.Ref()) && f.matches(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Insert implements Repository.
func (r *InMemoryRepository) Insert(ctx context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

// Update implements Repository.
func (r *InMemoryRepository) Update(ctx context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m.ID]; !ok {
		return ErrMemberNotFound
	}
	m.UpdatedAt = time.Now().UTC()
	cp := *m
	r.members[m.ID] = &cp
	return nil
}
