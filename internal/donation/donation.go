// Package donation records member donations and exposes the totals shown on
// the dashboard.
package donation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of a donation attempt.
type Status string

// Donation states.
const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Donation is a single donation record. Amount is in paise.
type Donation struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id,omitempty"`
	Amount    int64     `json:"amount"`
	Status    Status    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines donation persistence.
type Repository interface {
	// Insert stores a donation, assigning an id when empty.
	Insert(ctx context.Context, d *Donation) error

	// SumSuccessful returns the total amount in paise across successful
	// donations.
	SumSuccessful(ctx context.Context) (int64, error)
}

// InMemoryRepository is a mutex-guarded slice store for tests and local
// development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	donations []*Donation
}

// NewInMemoryRepository creates an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Insert implements Repository.
func (r *InMemoryRepository) Insert(ctx context.Context, d *Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	r.donations = append(r.donations, &cp)
	return nil
}

// SumSuccessful implements Repository.
func (r *InMemoryRepository) SumSuccessful(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, d := range r.donations {
		if d.Status == StatusSuccess {
			total += d.Amount
		}
	}
	return total, nil
}
