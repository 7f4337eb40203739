package donation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository is the production Repository backed by database/sql.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert implements Repository.
func (r *PostgresRepository) Insert(ctx context.Context, d *Donation) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO donations (id, member_id, amount, status, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, sql.NullString{String: d.MemberID, Valid: d.MemberID != ""},
		d.Amount, string(d.Status),
		sql.NullString{String: d.Reference, Valid: d.Reference != ""},
		d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// SumSuccessful implements Repository.
func (r *PostgresRepository) SumSuccessful(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM donations WHERE status = $1`,
		string(StatusSuccess)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum donations: %w", err)
	}
	return total, nil
}
