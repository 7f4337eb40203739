package adminmgmt

import (
	"context"

	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/member"
	"github.com/mewshq/mews/internal/scope"
)

// TxStore persists the paired admin/member writes of the promotion workflow
// atomically. A promotion that creates the admin record but leaves the
// member unelevated (or the reverse) is an orphan; the store either commits
// both writes or neither.
type TxStore interface {
	// Promote creates the admin record and persists the updated member in
	// one transaction.
	Promote(ctx context.Context, admin *identity.Admin, m *member.Member) error

	// Demote removes the admin record and persists the reset member in one
	// transaction.
	Demote(ctx context.Context, adminID string, m *member.Member) error

	// FindOrphanedPromotions returns the ids of members holding an admin
	// role with no corresponding admin record. Used by the repair sweep.
	FindOrphanedPromotions(ctx context.Context) ([]string, error)
}

// InMemoryTxStore pairs the in-memory repositories. True atomicity is not
// available without a transaction, so a failed second write compensates by
// undoing the first.
type InMemoryTxStore struct {
	admins  *identity.InMemoryRepository
	members *member.InMemoryRepository
}

// NewInMemoryTxStore creates an InMemoryTxStore over the given repositories.
func NewInMemoryTxStore(admins *identity.InMemoryRepository, members *member.InMemoryRepository) *InMemoryTxStore {
	return &InMemoryTxStore{admins: admins, members: members}
}

// Promote implements TxStore.
func (s *InMemoryTxStore) Promote(ctx context.Context, admin *identity.Admin, m *member.Member) error {
	if err := s.admins.Create(ctx, admin); err != nil {
		return err
	}
	if err := s.members.Update(ctx, m); err != nil {
		// Compensate so no orphan admin record survives.
		_ = s.admins.Delete(ctx, admin.ID)
		return err
	}
	return nil
}

// Demote implements TxStore.
func (s *InMemoryTxStore) Demote(ctx context.Context, adminID string, m *member.Member) error {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if err := s.admins.Delete(ctx, adminID); err != nil {
		return err
	}
	if err := s.members.Update(ctx, m); err != nil {
		_ = s.admins.Create(ctx, admin)
		return err
	}
	return nil
}

// FindOrphanedPromotions implements TxStore.
func (s *InMemoryTxStore) FindOrphanedPromotions(ctx context.Context) ([]string, error) {
	admins, err := s.admins.FindSubordinates(ctx, identity.SubordinateFilter{
		Roles: identity.ManageableRoles(identity.RoleSuperAdmin),
	})
	if err != nil {
		return nil, err
	}
	linked := make(map[string]bool, len(admins))
	for _, a := range admins {
		if a.MemberID != nil {
			linked[*a.MemberID] = true
		}
	}

	all, err := s.members.List(ctx, scope.All(), member.Filter{})
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, m := range all {
		if m.Role.IsAdmin() && !linked[m.ID] {
			orphans = append(orphans, m.ID)
		}
	}
	return orphans, nil
}
