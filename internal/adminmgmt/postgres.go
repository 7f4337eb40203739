package adminmgmt

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/member"
)

// PostgresTxStore runs the paired admin/member writes inside one database
// transaction.
type PostgresTxStore struct {
	db *sql.DB
}

// NewPostgresTxStore creates a PostgresTxStore.
func NewPostgresTxStore(db *sql.DB) *PostgresTxStore {
	return &PostgresTxStore{db: db}
}

// Promote implements TxStore.
func (s *PostgresTxStore) Promote(ctx context.Context, admin *identity.Admin, m *member.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin promotion: %w", err)
	}
	defer tx.Rollback()

	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO admins (id, username, email, mobile_number, password_hash,
			role, assigned_location_id, member_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`,
		admin.ID, admin.Username, admin.Email, admin.MobileNumber,
		admin.PasswordHash, string(admin.Role), admin.AssignedLocationID,
		admin.MemberID, admin.IsActive).
		Scan(&admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return identity.ErrUsernameTaken
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	if err := updateMemberRole(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit promotion: %w", err)
	}
	return nil
}

// Demote implements TxStore.
func (s *PostgresTxStore) Demote(ctx context.Context, adminID string, m *member.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin demotion: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, adminID)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete admin rows affected: %w", err)
	}
	if n == 0 {
		return identity.ErrAdminNotFound
	}

	if err := updateMemberRole(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit demotion: %w", err)
	}
	return nil
}

// updateMemberRole persists only the fields the workflow changes.
func updateMemberRole(ctx context.Context, tx *sql.Tx, m *member.Member) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE members SET role = $2, assigned_location_id = $3, updated_at = now()
		WHERE id = $1`,
		m.ID, string(m.Role), m.AssignedLocationID)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member rows affected: %w", err)
	}
	if n == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}

// FindOrphanedPromotions implements TxStore.
func (s *PostgresTxStore) FindOrphanedPromotions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id FROM members m
		LEFT JOIN admins a ON a.member_id = m.id
		WHERE m.role <> $1 AND a.id IS NULL`,
		string(identity.RoleMember))
	if err != nil {
		return nil, fmt.Errorf("scan orphaned promotions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
