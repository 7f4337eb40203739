package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for audit log operations.
type Repository interface {
	// LogAccess records an access event and returns the created entry.
	LogAccess(ctx context.Context, entry LogEntry) (*AuditLog, error)

	// QueryByEntity retrieves audit logs for a specific entity, newest first.
	// Limit specifies the maximum number of entries to return (0 = no limit).
	QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error)

	// QueryByAdmin retrieves audit logs for a specific admin, newest first.
	// Limit specifies the maximum number of entries to return (0 = no limit).
	QueryByAdmin(ctx context.Context, adminID string, limit int) ([]*AuditLog, error)
}

// IPAnonymizer is implemented by repositories that support retention-driven
// IP address anonymization.
type IPAnonymizer interface {
	// AnonymizeIPsBefore anonymizes IP addresses on entries created before
	// the cutoff. Returns the number of entries updated.
	AnonymizeIPsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu   sync.RWMutex
	logs map[string]*AuditLog
	// Insertion order, oldest first
	order []string
}

// NewInMemoryRepository creates a new in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		logs:  make(map[string]*AuditLog),
		order: make([]string, 0),
	}
}

// LogAccess records an access event, chaining it to the previous entry.
func (r *InMemoryRepository) LogAccess(ctx context.Context, entry LogEntry) (*AuditLog, error) {
	outcome := entry.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var previousHash string
	if len(r.order) > 0 {
		previousHash = computeHash(r.logs[r.order[len(r.order)-1]])
	}

	log := &AuditLog{
		ID:           uuid.New().String(),
		AdminID:      entry.AdminID,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		Action:       entry.Action,
		Outcome:      outcome,
		CreatedAt:    time.Now().UTC(),
		RequestID:    entry.RequestID,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		PreviousHash: previousHash,
	}

	r.logs[log.ID] = log
	r.order = append(r.order, log.ID)

	// Return a copy to prevent external modification
	logCopy := *log
	return &logCopy, nil
}

// QueryByEntity retrieves audit logs for a specific entity, newest first.
func (r *InMemoryRepository) QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*AuditLog
	for i := len(r.order) - 1; i >= 0; i-- {
		log := r.logs[r.order[i]]
		if log.EntityType == entityType && log.EntityID == entityID {
			logCopy := *log
			results = append(results, &logCopy)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// QueryByAdmin retrieves audit logs for a specific admin, newest first.
func (r *InMemoryRepository) QueryByAdmin(ctx context.Context, adminID string, limit int) ([]*AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*AuditLog
	for i := len(r.order) - 1; i >= 0; i-- {
		log := r.logs[r.order[i]]
		if log.AdminID == adminID {
			logCopy := *log
			results = append(results, &logCopy)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// GetLastHash returns the hash of the most recent entry, or an empty string
// for an empty repository.
func (r *InMemoryRepository) GetLastHash() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return "", nil
	}
	return computeHash(r.logs[r.order[len(r.order)-1]]), nil
}

// VerifyHashChain recomputes every entry's hash and checks it against the
// next entry's PreviousHash. Returns false if any entry was altered after
// being written.
func (r *InMemoryRepository) VerifyHashChain() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, id := range r.order {
		log := r.logs[id]
		if i == 0 {
			if log.PreviousHash != "" {
				return false, nil
			}
			continue
		}
		if log.PreviousHash != computeHash(r.logs[r.order[i-1]]) {
			return false, nil
		}
	}
	return true, nil
}

// AnonymizeIPsBefore anonymizes IP addresses on entries older than the cutoff.
func (r *InMemoryRepository) AnonymizeIPsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for _, id := range r.order {
		log := r.logs[id]
		if log.IPAddress == "" || !log.CreatedAt.Before(cutoff) {
			continue
		}
		anonymized := AnonymizeIP(log.IPAddress)
		if anonymized == log.IPAddress {
			continue
		}
		log.IPAddress = anonymized
		updated++
		if batchSize > 0 && updated >= batchSize {
			break
		}
	}
	return updated, nil
}
