package identity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
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

const adminColumns = `id, username, email, mobile_number, password_hash, role,
	assigned_location_id, member_id, is_active, created_at, updated_at`

func scanAdmin(row interface{ Scan(...any) error }) (*Admin, error) {
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.MobileNumber,
		&a.PasswordHash, &a.Role, &a.AssignedLocationID, &a.MemberID,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an admin by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// GetByUsername retrieves an admin by username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1`
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by username: %w", err)
	}
	return admin, nil
}

// FindSubordinates lists admins matching the filter, lowest rank last.
func (r *PostgresRepository) FindSubordinates(ctx context.Context, filter SubordinateFilter) ([]*Admin, error) {
	roles := make([]string, len(filter.Roles))
	for i, role := range filter.Roles {
		roles[i] = string(role)
	}

	query := `SELECT ` + adminColumns + ` FROM admins
		WHERE id <> $1 AND role = ANY($2)`
	args := []any{filter.ExcludeID, pq.Array(roles)}
	if filter.LocationIDs != nil {
		query += ` AND assigned_location_id = ANY($3)`
		args = append(args, pq.Array(filter.LocationIDs))
	}
	query += ` ORDER BY role, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subordinates: %w", err)
	}
	defer rows.Close()

	var out []*Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, admin)
	}
	return out, rows.Err()
}

// Create stores a new admin. A unique violation on username maps to
// ErrUsernameTaken.
func (r *PostgresRepository) Create(ctx context.Context, admin *Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	query := `
		INSERT INTO admins (id, username, email, mobile_number, password_hash,
			role, assigned_location_id, member_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, admin.ID, admin.Username,
		admin.Email, admin.MobileNumber, admin.PasswordHash, string(admin.Role),
		admin.AssignedLocationID, admin.MemberID, admin.IsActive).
		Scan(&admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// Update persists changes to an existing admin.
func (r *PostgresRepository) Update(ctx context.Context, admin *Admin) error {
	query := `
		UPDATE admins SET email = $2, mobile_number = $3, password_hash = $4,
			role = $5, assigned_location_id = $6, member_id = $7, is_active = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, admin.ID, admin.Email,
		admin.MobileNumber, admin.PasswordHash, string(admin.Role),
		admin.AssignedLocationID, admin.MemberID, admin.IsActive).
		Scan(&admin.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrAdminNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}
	return nil
}

// Delete removes an admin record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAdminNotFound
	}
	return nil
}
