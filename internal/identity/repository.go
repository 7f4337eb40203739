package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SubordinateFilter narrows FindSubordinates results.
type SubordinateFilter struct {
	// ExcludeID removes the caller's own record from the listing.
	ExcludeID string

	// Roles restricts results to the given roles (typically every role
	// ranked below the caller). Empty matches nothing: a caller who can
	// manage no role sees no one.
	Roles []Role

	// LocationIDs restricts results to admins assigned to one of the given
	// locations. Nil means no location restriction (global caller).
	LocationIDs []string
}

// Repository defines the interface for admin identity operations.
type Repository interface {
	// GetByID retrieves an admin by ID.
	GetByID(ctx context.Context, id string) (*Admin, error)

	// GetByUsername retrieves an admin by username.
	GetByUsername(ctx context.Context, username string) (*Admin, error)

	// FindSubordinates lists admins matching the filter.
	FindSubordinates(ctx context.Context, filter SubordinateFilter) ([]*Admin, error)

	// Create stores a new admin. Returns ErrUsernameTaken on a duplicate
	// username.
	Create(ctx context.Context, admin *Admin) error

	// Update persists changes to an existing admin.
	Update(ctx context.Context, admin *Admin) error

	// Delete removes an admin record.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	admins map[string]*Admin
}

// NewInMemoryRepository creates a new in-memory admin repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{admins: make(map[string]*Admin)}
}

// GetByID retrieves an admin by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	adminCopy := *admin
	return &adminCopy, nil
}

// GetByUsername retrieves an admin by username.
func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, admin := range r.admins {
		if admin.Username == username {
			adminCopy := *admin
			return &adminCopy, nil
		}
	}
	return nil, ErrAdminNotFound
}

// FindSubordinates lists admins matching the filter.
func (r *InMemoryRepository) FindSubordinates(ctx context.Context, filter SubordinateFilter) ([]*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roleSet := make(map[Role]bool, len(filter.Roles))
	for _, role := range filter.Roles {
		roleSet[role] = true
	}
	var locSet map[string]bool
	if filter.LocationIDs != nil {
		locSet = make(map[string]bool, len(filter.LocationIDs))
		for _, id := range filter.LocationIDs {
			locSet[id] = true
		}
	}

	var out []*Admin
	for _, admin := range r.admins {
		if admin.ID == filter.ExcludeID {
			continue
		}
		if !roleSet[admin.Role] {
			continue
		}
		if locSet != nil {
			if admin.AssignedLocationID == nil || !locSet[*admin.AssignedLocationID] {
				continue
			}
		}
		adminCopy := *admin
		out = append(out, &adminCopy)
	}
	return out, nil
}

// Create stores a new admin.
func (r *InMemoryRepository) Create(ctx context.Context, admin *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.admins {
		if existing.Username == admin.Username {
			return ErrUsernameTaken
		}
	}
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	adminCopy := *admin
	r.admins[admin.ID] = &adminCopy
	return nil
}

// Update persists changes to an existing admin.
func (r *InMemoryRepository) Update(ctx context.Context, admin *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admins[admin.ID]; !ok {
		return ErrAdminNotFound
	}
	admin.UpdatedAt = time.Now()
	adminCopy := *admin
	r.admins[admin.ID] = &adminCopy
	return nil
}

// Delete removes an admin record.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admins[id]; !ok {
		return ErrAdminNotFound
	}
	delete(r.admins, id)
	return nil
}
