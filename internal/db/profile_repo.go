package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"floatdeck/internal/types"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// ListProfilesParams defines filtering and pagination for listing profiles.
type ListProfilesParams struct {
	Bounds  *types.Bounds
	Filters types.FilterSet
	Limit   int
	Offset  int
}

// ProfileRepository provides data access for the profiles table.
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a repository backed by the given connection
// (pool or transaction).
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// profileColumns is the standard column set for profile queries.
const profileColumns = `p.id, p.float_id, p.latitude, p.longitude, p.depth,
	p.temperature, p.salinity, p.month, p.year, p.measured_at`

func scanProfile(row pgx.Row) (*types.ProfileRecord, error) {
	var p types.ProfileRecord
	err := row.Scan(
		&p.ID,
		&p.FloatID,
		&p.Latitude,
		&p.Longitude,
		&p.Depth,
		&p.Temperature,
		&p.Salinity,
		&p.Month,
		&p.Year,
		&p.Date,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a profile and returns it with the generated ID. A duplicate
// (same float, period and depth) maps to a conflict error.
func (r *ProfileRepository) Create(ctx context.Context, p types.ProfileRecord) (*types.ProfileRecord, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (float_id, latitude, longitude, depth, temperature, salinity, month, year, measured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		p.FloatID, p.Latitude, p.Longitude, p.Depth, p.Temperature, p.Salinity, p.Month, p.Year, p.Date,
	)
	if err := row.Scan(&p.ID); err != nil {
		return nil, mapDBError(err)
	}
	return &p, nil
}

// GetByID fetches one profile by its primary key.
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*types.ProfileRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles p WHERE p.id = $1`, id)

	p, err := scanProfile(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

// List returns profiles matching the bounds and filters, newest first, plus
// the total matching count for pagination.
func (r *ProfileRepository) List(ctx context.Context, params ListProfilesParams) ([]types.ProfileRecord, int, error) {
	where, args := buildProfileWhere(params.Bounds, params.Filters)

	var total int
	countRow := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles p`+where, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM profiles p%s ORDER BY p.year DESC, p.month DESC, p.id DESC LIMIT $%d OFFSET $%d`,
		profileColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	records := []types.ProfileRecord{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, mapDBError(err)
		}
		records = append(records, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}

	return records, total, nil
}

// ListByViewport returns every profile inside the bounds matching the
// filters, without pagination. It backs the map-view fetch path.
func (r *ProfileRepository) ListByViewport(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error) {
	where, args := buildProfileWhere(&bounds, filters)

	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles p`+where+` ORDER BY p.id`, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	records := []types.ProfileRecord{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapDBError(err)
		}
		records = append(records, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}

	return records, nil
}

// ProfilePatch holds the optional fields of a partial profile update. Nil
// fields are left unchanged.
type ProfilePatch struct {
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Salinity    *float64 `json:"salinity,omitempty"`
	Month       *int     `json:"month,omitempty"`
	Year        *int     `json:"year,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p ProfilePatch) IsEmpty() bool {
	return p == ProfilePatch{}
}

// Update applies a partial update and returns the updated row. Updating a
// missing profile is a not-found error.
func (r *ProfileRepository) Update(ctx context.Context, id int64, patch ProfilePatch) (*types.ProfileRecord, error) {
	var sets []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	setFloat := func(col string, v *float64) {
		if v != nil {
			sets = append(sets, col+" = "+arg(*v))
		}
	}
	setInt := func(col string, v *int) {
		if v != nil {
			sets = append(sets, col+" = "+arg(*v))
		}
	}

	setFloat("latitude", patch.Latitude)
	setFloat("longitude", patch.Longitude)
	setFloat("depth", patch.Depth)
	setFloat("temperature", patch.Temperature)
	setFloat("salinity", patch.Salinity)
	setInt("month", patch.Month)
	setInt("year", patch.Year)

	if len(sets) == 0 {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "no fields to update", nil)
	}

	query := fmt.Sprintf(`UPDATE profiles AS p SET %s WHERE p.id = %s RETURNING `+profileColumns,
		strings.Join(sets, ", "), arg(id))

	p, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

// Nearest returns the profiles closest to the given coordinate, ordered by
// squared planar distance, optionally cut off at a radius in degrees. Good
// enough at dashboard zoom levels; a PostGIS geography column would replace
// this if precision ever matters.
func (r *ProfileRepository) Nearest(ctx context.Context, lat, lon float64, limit int, radius float64) ([]types.ProfileRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	const sqDistance = `(p.latitude - $1) * (p.latitude - $1) + (p.longitude - $2) * (p.longitude - $2)`

	query := `SELECT ` + profileColumns + ` FROM profiles p`
	args := []any{lat, lon}
	if radius > 0 {
		query += ` WHERE ` + sqDistance + ` <= $3`
		args = append(args, radius*radius)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY `+sqDistance+` LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	records := []types.ProfileRecord{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapDBError(err)
		}
		records = append(records, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}

	return records, nil
}

// BulkInsert inserts a batch of profiles, skipping duplicates. It returns
// the number of rows actually inserted.
func (r *ProfileRepository) BulkInsert(ctx context.Context, records []types.ProfileRecord) (int, error) {
	inserted := 0
	for _, p := range records {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO profiles (float_id, latitude, longitude, depth, temperature, salinity, month, year, measured_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (float_id, year, month, depth) DO NOTHING`,
			p.FloatID, p.Latitude, p.Longitude, p.Depth, p.Temperature, p.Salinity, p.Month, p.Year, p.Date,
		)
		if err != nil {
			return inserted, mapDBError(err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Delete removes a profile. Deleting a missing profile is a not-found error.
func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return mapDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProfile, fmt.Sprintf("profile %d not found", id), nil)
	}
	return nil
}

// buildProfileWhere assembles the WHERE clause and args for bounds and
// filter conditions. Returns an empty string when nothing applies.
func buildProfileWhere(bounds *types.Bounds, filters types.FilterSet) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if bounds != nil {
		b := bounds.Clamp()
		conds = append(conds,
			"p.latitude >= "+arg(b.South),
			"p.latitude <= "+arg(b.North),
			"p.longitude >= "+arg(b.West),
			"p.longitude <= "+arg(b.East),
		)
	}

	addRange := func(col string, min, max *float64) {
		if min != nil {
			conds = append(conds, "p."+col+" >= "+arg(*min))
		}
		if max != nil {
			conds = append(conds, "p."+col+" <= "+arg(*max))
		}
	}
	addRange("depth", filters.DepthMin, filters.DepthMax)
	addRange("temperature", filters.TemperatureMin, filters.TemperatureMax)
	addRange("salinity", filters.SalinityMin, filters.SalinityMax)

	if filters.Month != nil {
		conds = append(conds, "p.month = "+arg(*filters.Month))
	}
	if filters.Year != nil {
		conds = append(conds, "p.year = "+arg(*filters.Year))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// mapDBError translates pgx errors into AppErrors.
func mapDBError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return types.NewAppError(types.ErrCodeConflictDuplicate, "profile already exists for this float, period and depth", err)
	}

	return types.NewAppError(types.ErrCodeInternalDB, "database operation failed", err)
}
