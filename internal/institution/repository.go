package institution

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines institution persistence. The matching operations take
// the location names from a resolved scope; an empty name list means the
// caller is unscoped and every institution matches.
type Repository interface {
	// GetByID returns the institution or ErrInstitutionNotFound.
	GetByID(ctx context.Context, id string) (*Institution, error)

	// CountMatching counts institutions whose full address contains any of
	// the given names, case-insensitively. Empty names counts everything.
	CountMatching(ctx context.Context, names []string) (int, error)

	// ListMatching returns institutions whose full address contains any of
	// the given names, ordered by name. Empty names returns everything.
	ListMatching(ctx context.Context, names []string) ([]*Institution, error)

	// Insert stores a new institution, assigning an id when empty.
	Insert(ctx context.Context, inst *Institution) error
}

// addressMatches reports whether the address contains any of the names,
// ignoring case and surrounding whitespace.
func addressMatches(address string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	lower := strings.ToLower(address)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// InMemoryRepository is a mutex-guarded map store for tests and local
// development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	insts map[string]*Institution
}

// NewInMemoryRepository creates an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{insts: make(map[string]*Institution)}
}

// GetByID implements Repository.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Institution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.insts[id]
	if !ok {
		return nil, ErrInstitutionNotFound
	}
	cp := *inst
	return &cp, nil
}

// CountMatching implements Repository.
func (r *InMemoryRepository) CountMatching(ctx context.Context, names []string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, inst := range r.insts {
		if addressMatches(inst.FullAddress, names) {
			n++
		}
	}
	return n, nil
}

// ListMatching implements Repository.
func (r *InMemoryRepository) ListMatching(ctx context.Context, names []string) ([]*Institution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Institution
	for _, inst := range r.insts {
		if addressMatches(inst.FullAddress, names) {
			cp := *inst
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Insert implements Repository.
func (r *InMemoryRepository) Insert(ctx context.Context, inst *Institution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	cp := *inst
	r.insts[inst.ID] = &cp
	return nil
}
