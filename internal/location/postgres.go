package location

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository using PostgreSQL.
// The ancestors path is stored as a JSONB column.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

const locationColumns = `id, name, pincode, type, parent_id, ancestors, created_at, updated_at`

// scanLocation scans one row into a Location.
func scanLocation(row interface{ Scan(...any) error }) (*Location, error) {
	var loc Location
	var ancestorsRaw []byte
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Pincode, &loc.Type,
		&loc.ParentID, &ancestorsRaw, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
		return nil, err
	}
	if len(ancestorsRaw) > 0 {
		if err := json.Unmarshal(ancestorsRaw, &loc.Ancestors); err != nil {
			return nil, fmt.Errorf("failed to decode ancestors: %w", err)
		}
	}
	return &loc, nil
}

// GetByID retrieves a location by its ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

// FindByNameType matches names trimmed and case-insensitively, the workaround
// for duplicate-name data entry with inconsistent whitespace and casing.
func (r *PostgresRepository) FindByNameType(ctx context.Context, name string, t Type) ([]*Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations
		WHERE lower(btrim(name)) = lower(btrim($1)) AND type = $2`
	return r.queryLocations(ctx, query, name, string(t))
}

// FindChildren returns direct children of parentID, optionally filtered by type.
func (r *PostgresRepository) FindChildren(ctx context.Context, parentID string, t Type) ([]*Location, error) {
	if t != "" {
		query := `SELECT ` + locationColumns + ` FROM locations
			WHERE parent_id = $1 AND type = $2 ORDER BY name`
		return r.queryLocations(ctx, query, parentID, string(t))
	}
	query := `SELECT ` + locationColumns + ` FROM locations
		WHERE parent_id = $1 ORDER BY name`
	return r.queryLocations(ctx, query, parentID)
}

// FindDescendantIDs walks the subtree with a depth-bounded recursive CTE.
func (r *PostgresRepository) FindDescendantIDs(ctx context.Context, rootID string) ([]string, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth FROM locations WHERE parent_id = $1
			UNION ALL
			SELECT l.id, s.depth + 1 FROM locations l
			JOIN subtree s ON l.parent_id = s.id
			WHERE s.depth < $2
		)
		SELECT id FROM subtree
	`
	rows, err := r.db.QueryContext(ctx, query, rootID, maxTreeDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to query descendants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns every location.
func (r *PostgresRepository) List(ctx context.Context) ([]*Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations`
	return r.queryLocations(ctx, query)
}

// Insert stores a new location, assigning an ID if empty.
func (r *PostgresRepository) Insert(ctx context.Context, loc *Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	ancestors, err := json.Marshal(loc.Ancestors)
	if err != nil {
		return fmt.Errorf("failed to encode ancestors: %w", err)
	}
	query := `
		INSERT INTO locations (id, name, pincode, type, parent_id, ancestors, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, loc.ID, loc.Name, loc.Pincode,
		string(loc.Type), loc.ParentID, ancestors).Scan(&loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

// UpdateAncestors bulk-replaces ancestors paths in one transaction so a
// rebuild pass is all-or-nothing.
func (r *PostgresRepository) UpdateAncestors(ctx context.Context, paths map[string][]Ancestor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Warn("failed to rollback ancestors update", "error", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE locations SET ancestors = $2, updated_at = now() WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare ancestors update: %w", err)
	}
	defer stmt.Close()

	for id, path := range paths {
		encoded, err := json.Marshal(path)
		if err != nil {
			return fmt.Errorf("failed to encode ancestors for %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, encoded); err != nil {
			return fmt.Errorf("failed to update ancestors for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// queryLocations runs a query returning location rows.
func (r *PostgresRepository) queryLocations(ctx context.Context, query string, args ...any) ([]*Location, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var out []*Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
