package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository is the production Repository backed by database/sql.
// Inserts run in a transaction that reads the newest entry's hash under
// lock, so concurrent writers always chain correctly.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// LogAccess implements Repository.
func (r *PostgresRepository) LogAccess(ctx context.Context, entry LogEntry) (*AuditLog, error) {
	outcome := entry.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	// Serialize chain updates so PreviousHash always points at the real tail.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('audit_logs_chain'))`); err != nil {
		return nil, fmt.Errorf("lock audit chain: %w", err)
	}

	log := &AuditLog{
		ID:         uuid.NewString(),
		AdminID:    entry.AdminID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Outcome:    outcome,
		// Truncate to what timestamptz stores so hashes recomputed from the
		// database match hashes computed at write time.
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		RequestID:  entry.RequestID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}

	var prev AuditLog
	err = tx.QueryRowContext(ctx, `
		SELECT id, admin_id, entity_type, entity_id, action, outcome, created_at,
		       COALESCE(request_id, ''), COALESCE(previous_hash, '')
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT 1`).Scan(
		&prev.ID, &prev.AdminID, &prev.EntityType, &prev.EntityID, &prev.Action,
		&prev.Outcome, &prev.CreatedAt, &prev.RequestID, &prev.PreviousHash)
	switch {
	case err == sql.ErrNoRows:
		// First entry in the chain
	case err != nil:
		return nil, fmt.Errorf("read audit chain tail: %w", err)
	default:
		log.PreviousHash = computeHash(&prev)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs
			(id, admin_id, entity_type, entity_id, action, outcome, created_at,
			 request_id, ip_address, user_agent, previous_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		log.ID, log.AdminID, log.EntityType, log.EntityID, log.Action, log.Outcome,
		log.CreatedAt,
		sql.NullString{String: log.RequestID, Valid: log.RequestID != ""},
		sql.NullString{String: log.IPAddress, Valid: log.IPAddress != ""},
		sql.NullString{String: log.UserAgent, Valid: log.UserAgent != ""},
		sql.NullString{String: log.PreviousHash, Valid: log.PreviousHash != ""})
	if err != nil {
		return nil, fmt.Errorf("insert audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit audit log: %w", err)
	}
	return log, nil
}

// QueryByEntity implements Repository.
func (r *PostgresRepository) QueryByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*AuditLog, error) {
	query := `
		SELECT id, admin_id, entity_type, entity_id, action, outcome, created_at,
		       COALESCE(request_id, ''), COALESCE(ip_address, ''),
		       COALESCE(user_agent, ''), COALESCE(previous_hash, '')
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC`
	args := []any{entityType, entityID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.queryLogs(ctx, query, args...)
}

// QueryByAdmin implements Repository.
func (r *PostgresRepository) QueryByAdmin(ctx context.Context, adminID string, limit int) ([]*AuditLog, error) {
	query := `
		SELECT id, admin_id, entity_type, entity_id, action, outcome, created_at,
		       COALESCE(request_id, ''), COALESCE(ip_address, ''),
		       COALESCE(user_agent, ''), COALESCE(previous_hash, '')
		FROM audit_logs
		WHERE admin_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{adminID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.queryLogs(ctx, query, args...)
}

func (r *PostgresRepository) queryLogs(ctx context.Context, query string, args ...any) ([]*AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var results []*AuditLog
	for rows.Next() {
		log := &AuditLog{}
		if err := rows.Scan(
			&log.ID, &log.AdminID, &log.EntityType, &log.EntityID, &log.Action,
			&log.Outcome, &log.CreatedAt, &log.RequestID, &log.IPAddress,
			&log.UserAgent, &log.PreviousHash); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		results = append(results, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return results, nil
}

// AnonymizeIPsBefore implements IPAnonymizer. Eligible rows are fetched in a
// batch and anonymized one by one; ip_anonymized_at marks rows as done so
// repeated runs skip them.
func (r *PostgresRepository) AnonymizeIPsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ip_address
		FROM audit_logs
		WHERE created_at < $1
		  AND ip_address IS NOT NULL
		  AND ip_anonymized_at IS NULL
		ORDER BY created_at
		LIMIT $2`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("query anonymization batch: %w", err)
	}

	type row struct {
		id string
		ip string
	}
	var batch []row
	for rows.Next() {
		var rec row
		if err := rows.Scan(&rec.id, &rec.ip); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan anonymization batch: %w", err)
		}
		batch = append(batch, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate anonymization batch: %w", err)
	}
	rows.Close()

	updated := 0
	for _, rec := range batch {
		anonymized := AnonymizeIP(rec.ip)
		_, err := r.db.ExecContext(ctx, `
			UPDATE audit_logs
			SET ip_address = $1, ip_anonymized_at = NOW()
			WHERE id = $2`,
			sql.NullString{String: anonymized, Valid: anonymized != ""}, rec.id)
		if err != nil {
			return updated, fmt.Errorf("anonymize audit log %s: %w", rec.id, err)
		}
		updated++
	}
	return updated, nil
}
