package member

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mewshq/mews/internal/scope"
)

// PostgresRepository is the production Repository backed by database/sql.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const memberColumns = `id, mews_id, surname, name, father_name,
	gender, age, dob, occupation, marital_status, blood_group,
	mobile_number, email, aadhaar_number,
	district_id, mandal_id, municipality_id, village_id, constituency_id,
	ward_number, house_number, street, pin_code, state,
	ration_card_number, verification_status,
	head_of_family_id, relation_to_head,
	role, assigned_location_id,
	is_active, created_at, updated_at`

// predicateColumn maps a scope field to its members column.
func predicateColumn(f scope.Field) (string, error) {
	switch f {
	case scope.FieldVillage:
		return "village_id", nil
	case scope.FieldMandal:
		return "mandal_id", nil
	case scope.FieldMunicipality:
		return "municipality_id", nil
	case scope.FieldDistrict:
		return "district_id", nil
	}
	return "", fmt.Errorf("unknown scope field %q", f)
}

// renderPredicate turns a scope predicate into a WHERE fragment. MatchNone
// renders to FALSE so a fail-closed scope cannot leak rows, whatever else
// the query says.
func renderPredicate(pred scope.Predicate, args []any) (string, []any, error) {
	switch {
	case pred.MatchNone:
		return "FALSE", args, nil
	case pred.MatchAll:
		return "TRUE", args, nil
	}
	col, err := predicateColumn(pred.Field)
	if err != nil {
		return "", nil, err
	}
	args = append(args, pq.Array(pred.LocationIDs))
	return fmt.Sprintf("%s = ANY($%d)", col, len(args)), args, nil
}

// renderFilter appends filter constraints to the WHERE clause.
func renderFilter(f Filter, where string, args []any) (string, []any) {
	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND verification_status = $%d", len(args))
	}
	if !f.CreatedAfter.IsZero() {
		args = append(args, f.CreatedAfter)
		where += fmt.Sprintf(" AND created_at > $%d", len(args))
	}
	if f.HeadOfFamilyID != "" {
		args = append(args, f.HeadOfFamilyID)
		where += fmt.Sprintf(" AND head_of_family_id = $%d", len(args))
	}
	return where, args
}

func scanMember(row interface{ Scan(...any) error }) (*Member, error) {
	var m Member
	var (
		mewsID, fatherName, gender, occupation, marital, blood  sql.NullString
		mobile, email, aadhaar                                  sql.NullString
		district, mandal, municipality, village, constituency   sql.NullString
		ward, house, street, pin, state                         sql.NullString
		rationCard, headOfFamily, relation, assignedLocation    sql.NullString
		age                                                     sql.NullInt64
		dob                                                     sql.NullTime
	)
	err := row.Scan(
		&m.ID, &mewsID, &m.Surname, &m.Name, &fatherName,
		&gender, &age, &dob, &occupation, &marital, &blood,
		&mobile, &email, &aadhaar,
		&district, &mandal, &municipality, &village, &constituency,
		&ward, &house, &street, &pin, &state,
		&rationCard, &m.VerificationStatus,
		&headOfFamily, &relation,
		&m.Role, &assignedLocation,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.MewsID = mewsID.String
	m.FatherName = fatherName.String
	m.Gender = gender.String
	m.Age = int(age.Int64)
	if dob.Valid {
		t := dob.Time
		m.DOB = &t
	}
	m.Occupation = occupation.String
	m.MaritalStatus = marital.String
	m.BloodGroup = blood.String
	m.MobileNumber = mobile.String
	m.Email = email.String
	m.AadhaarNumber = aadhaar.String
	m.Address = Address{
		DistrictID:     district.String,
		MandalID:       mandal.String,
		MunicipalityID: municipality.String,
		VillageID:      village.String,
		ConstituencyID: constituency.String,
		WardNumber:     ward.String,
		HouseNumber:    house.String,
		Street:         street.String,
		PinCode:        pin.String,
		State:          state.String,
	}
	m.RationCardNumber = rationCard.String
	m.HeadOfFamilyID = headOfFamily.String
	m.RelationToHead = relation.String
	if assignedLocation.Valid {
		s := assignedLocation.String
		m.AssignedLocationID = &s
	}
	return &m, nil
}

// GetByID implements Repository.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetByMobile implements Repository.
func (r *PostgresRepository) GetByMobile(ctx context.Context, mobile string) (*Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE mobile_number = $1`, mobile)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member by mobile: %w", err)
	}
	return m, nil
}

// Count implements Repository.
func (r *PostgresRepository) Count(ctx context.Context, pred scope.Predicate, f Filter) (int, error) {
	where, args, err := renderPredicate(pred, nil)
	if err != nil {
		return 0, err
	}
	where, args = renderFilter(f, where, args)

	var n int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// CountFamilies implements Repository.
func (r *PostgresRepository) CountFamilies(ctx context.Context, pred scope.Predicate) (int, error) {
	where, args, err := renderPredicate(pred, nil)
	if err != nil {
		return 0, err
	}

	// Household key mirrors familyKey: ration card when present, otherwise
	// house number (UNK fallback) joined with the village id.
	var n int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT
			CASE WHEN COALESCE(btrim(ration_card_number), '') <> ''
				THEN btrim(ration_card_number)
				ELSE COALESCE(NULLIF(btrim(house_number), ''), 'UNK')
					|| '_' || COALESCE(village_id, '')
			END)
		FROM members WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count families: %w", err)
	}
	return n, nil
}

// AggregateField implements Repository.
func (r *PostgresRepository) AggregateField(ctx context.Context, pred scope.Predicate, field Field) (map[string]int, error) {
	var expr string
	switch field {
	case FieldGender, FieldOccupation, FieldMaritalStatus, FieldBloodGroup:
		expr = fmt.Sprintf("COALESCE(%s, '')", string(field))
	case FieldAge:
		expr = "COALESCE(NULLIF(age, 0)::text, '')"
	default:
		return nil, fmt.Errorf("unknown aggregate field %q", field)
	}

	where, args, err := renderPredicate(pred, nil)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expr+` AS v, COUNT(*) FROM members WHERE `+where+` GROUP BY v`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate members by %s: %w", field, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var v string
		var n int
		if err := rows.Scan(&v, &n); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		out[v] = n
	}
	return out, rows.Err()
}

// List implements Repository.
func (r *PostgresRepository) List(ctx context.Context, pred scope.Predicate, f Filter) ([]*Member, error) {
	where, args, err := renderPredicate(pred, nil)
	if err != nil {
		return nil, err
	}
	where, args = renderFilter(f, where, args)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE `+where+` ORDER BY created_at DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Insert implements Repository.
func (r *PostgresRepository) Insert(ctx context.Context, m *Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32, $33)`,
		m.ID, nullStr(m.MewsID), m.Surname, m.Name, nullStr(m.FatherName),
		nullStr(m.Gender), nullInt(m.Age), m.DOB, nullStr(m.Occupation),
		nullStr(m.MaritalStatus), nullStr(m.BloodGroup),
		nullStr(m.MobileNumber), nullStr(m.Email), nullStr(m.AadhaarNumber),
		nullStr(m.Address.DistrictID), nullStr(m.Address.MandalID),
		nullStr(m.Address.MunicipalityID), nullStr(m.Address.VillageID),
		nullStr(m.Address.ConstituencyID), nullStr(m.Address.WardNumber),
		nullStr(m.Address.HouseNumber), nullStr(m.Address.Street),
		nullStr(m.Address.PinCode), nullStr(m.Address.State),
		nullStr(m.RationCardNumber), string(m.VerificationStatus),
		nullStr(m.HeadOfFamilyID), nullStr(m.RelationToHead),
		string(m.Role), m.AssignedLocationID,
		m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// Update implements Repository.
func (r *PostgresRepository) Update(ctx context.Context, m *Member) error {
	m.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET
			mews_id = $2, surname = $3, name = $4, father_name = $5,
			gender = $6, age = $7, dob = $8, occupation = $9,
			marital_status = $10, blood_group = $11,
			mobile_number = $12, email = $13, aadhaar_number = $14,
			district_id = $15, mandal_id = $16, municipality_id = $17,
			village_id = $18, constituency_id = $19, ward_number = $20,
			house_number = $21, street = $22, pin_code = $23, state = $24,
			ration_card_number = $25, verification_status = $26,
			head_of_family_id = $27, relation_to_head = $28,
			role = $29, assigned_location_id = $30,
			is_active = $31, updated_at = $32
		WHERE id = $1`,
		m.ID, nullStr(m.MewsID), m.Surname, m.Name, nullStr(m.FatherName),
		nullStr(m.Gender), nullInt(m.Age), m.DOB, nullStr(m.Occupation),
		nullStr(m.MaritalStatus), nullStr(m.BloodGroup),
		nullStr(m.MobileNumber), nullStr(m.Email), nullStr(m.AadhaarNumber),
		nullStr(m.Address.DistrictID), nullStr(m.Address.MandalID),
		nullStr(m.Address.MunicipalityID), nullStr(m.Address.VillageID),
		nullStr(m.Address.ConstituencyID), nullStr(m.Address.WardNumber),
		nullStr(m.Address.HouseNumber), nullStr(m.Address.Street),
		nullStr(m.Address.PinCode), nullStr(m.Address.State),
		nullStr(m.RationCardNumber), string(m.VerificationStatus),
		nullStr(m.HeadOfFamilyID), nullStr(m.RelationToHead),
		string(m.Role), m.AssignedLocationID,
		m.IsActive, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member rows affected: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
