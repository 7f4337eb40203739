package location

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxTreeDepth bounds parent-chain walks. The hierarchy is at most
// state -> district -> constituency -> mandal/municipality -> village/ward,
// so anything deeper indicates a cycle in seeded data.
const maxTreeDepth = 8

// Repository defines the interface for location-tree data operations.
type Repository interface {
	// GetByID retrieves a location by its ID.
	GetByID(ctx context.Context, id string) (*Location, error)

	// FindByNameType returns every node whose trimmed name matches name
	// case-insensitively and whose type matches t. Duplicate-name data entry
	// means this can return more than one node for the same logical place.
	FindByNameType(ctx context.Context, name string, t Type) ([]*Location, error)

	// FindChildren returns direct children of parentID. If t is non-empty,
	// only children of that type are returned.
	FindChildren(ctx context.Context, parentID string, t Type) ([]*Location, error)

	// FindDescendantIDs returns the IDs of every node in the subtree rooted
	// at rootID, excluding rootID itself. The walk is breadth-first and
	// depth-bounded.
	FindDescendantIDs(ctx context.Context, rootID string) ([]string, error)

	// List returns every location. Used by the ancestor rebuild pass.
	List(ctx context.Context) ([]*Location, error)

	// Insert stores a new location, assigning an ID if empty.
	Insert(ctx context.Context, loc *Location) error

	// UpdateAncestors bulk-replaces the ancestors path of the given nodes.
	UpdateAncestors(ctx context.Context, paths map[string][]Ancestor) error
}

// nameEqualFold compares location names the way the ingestion workaround
// requires: leading/trailing whitespace stripped, case-insensitive.
func nameEqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	locations map[string]*Location
}

// NewInMemoryRepository creates a new in-memory location repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		locations: make(map[string]*Location),
	}
}

// GetByID retrieves a location by its ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}
	locCopy := *loc
	return &locCopy, nil
}

// FindByNameType returns every node matching name (trimmed, case-insensitive)
// and type.
func (r *InMemoryRepository) FindByNameType(ctx context.Context, name string, t Type) ([]*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Location
	for _, loc := range r.locations {
		if loc.Type == t && nameEqualFold(loc.Name, name) {
			locCopy := *loc
			out = append(out, &locCopy)
		}
	}
	return out, nil
}

// FindChildren returns direct children of parentID, optionally filtered by type.
func (r *InMemoryRepository) FindChildren(ctx context.Context, parentID string, t Type) ([]*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Location
	for _, loc := range r.locations {
		if loc.ParentID == nil || *loc.ParentID != parentID {
			continue
		}
		if t != "" && loc.Type != t {
			continue
		}
		locCopy := *loc
		out = append(out, &locCopy)
	}
	return out, nil
}

// FindDescendantIDs returns all subtree node IDs below rootID.
func (r *InMemoryRepository) FindDescendantIDs(ctx context.Context, rootID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// parent -> children index for the walk
	children := make(map[string][]string)
	for id, loc := range r.locations {
		if loc.ParentID != nil {
			children[*loc.ParentID] = append(children[*loc.ParentID], id)
		}
	}

	var out []string
	batch := []string{rootID}
	for depth := 0; depth < maxTreeDepth && len(batch) > 0; depth++ {
		var next []string
		for _, id := range batch {
			next = append(next, children[id]...)
		}
		out = append(out, next...)
		batch = next
	}
	return out, nil
}

// List returns every location.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Location, 0, len(r.locations))
	for _, loc := range r.locations {
		locCopy := *loc
		out = append(out, &locCopy)
	}
	return out, nil
}

// Insert stores a new location, assigning an ID if empty.
func (r *InMemoryRepository) Insert(ctx context.Context, loc *Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	now := time.Now()
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = now
	}
	loc.UpdatedAt = now

	locCopy := *loc
	r.locations[loc.ID] = &locCopy
	return nil
}

// UpdateAncestors bulk-replaces ancestors paths.
func (r *InMemoryRepository) UpdateAncestors(ctx context.Context, paths map[string][]Ancestor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, path := range paths {
		loc, ok := r.locations[id]
		if !ok {
			return ErrLocationNotFound
		}
		loc.Ancestors = append([]Ancestor(nil), path...)
		loc.UpdatedAt = now
	}
	return nil
}
