package institution

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
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

const institutionColumns = `id, name, type, full_address,
	contact_name, contact_mobile, is_active, created_at, updated_at`

// likeEscaper neutralizes LIKE metacharacters in location names so they
// match as literal substrings.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// matchClause builds an OR-joined ILIKE clause over full_address. Empty
// names renders to TRUE (unscoped).
func matchClause(names []string) (string, []any) {
	var clauses []string
	var args []any
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		args = append(args, "%"+likeEscaper.Replace(name)+"%")
		clauses = append(clauses, fmt.Sprintf("full_address ILIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "TRUE", nil
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func scanInstitution(row interface{ Scan(...any) error }) (*Institution, error) {
	var inst Institution
	var typ, contactName, contactMobile sql.NullString
	err := row.Scan(&inst.ID, &inst.Name, &typ, &inst.FullAddress,
		&contactName, &contactMobile, &inst.IsActive,
		&inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inst.Type = typ.String
	inst.ContactName = contactName.String
	inst.ContactMobile = contactMobile.String
	return &inst, nil
}

// GetByID implements Repository.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Institution, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+institutionColumns+` FROM institutions WHERE id = $1`, id)
	inst, err := scanInstitution(row)
	if err == sql.ErrNoRows {
		return nil, ErrInstitutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get institution: %w", err)
	}
	return inst, nil
}

// CountMatching implements Repository.
func (r *PostgresRepository) CountMatching(ctx context.Context, names []string) (int, error) {
	where, args := matchClause(names)
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM institutions WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count institutions: %w", err)
	}
	return n, nil
}

// ListMatching implements Repository.
func (r *PostgresRepository) ListMatching(ctx context.Context, names []string) ([]*Institution, error) {
	where, args := matchClause(names)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+institutionColumns+` FROM institutions WHERE `+where+` ORDER BY name`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	defer rows.Close()

	var out []*Institution
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan institution: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// Insert implements Repository.
func (r *PostgresRepository) Insert(ctx context.Context, inst *Institution) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO institutions (`+institutionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inst.ID, inst.Name, sql.NullString{String: inst.Type, Valid: inst.Type != ""},
		inst.FullAddress,
		sql.NullString{String: inst.ContactName, Valid: inst.ContactName != ""},
		sql.NullString{String: inst.ContactMobile, Valid: inst.ContactMobile != ""},
		inst.IsActive, inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert institution: %w", err)
	}
	return nil
}
