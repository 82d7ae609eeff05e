package need

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
)

const needColumns = `n.id, n.hospital_id, h.name, n.blood_type, n.units_needed, n.fulfilled_units,
		       n.is_fulfilled, n.urgency, n.details, n.expires_at, n.posted_at, n.updated_at`

const urgencyRankSQL = `CASE n.urgency WHEN 'critical' THEN 1 WHEN 'urgent' THEN 2 WHEN 'normal' THEN 3 ELSE 4 END`

type PgRepository struct{}

func NewPgRepository() *PgRepository {
	return &PgRepository{}
}

func scanNeed(row pgx.Row) (*BloodNeed, error) {
	var n BloodNeed

	err := row.Scan(
		&n.ID,
		&n.HospitalID,
		&n.HospitalName,
		&n.BloodType,
		&n.UnitsNeeded,
		&n.FulfilledUnits,
		&n.IsFulfilled,
		&n.Urgency,
		&n.Details,
		&n.ExpiresAt,
		&n.PostedAt,
		&n.UpdatedAt,
		&n.DistanceKm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNeedNotFound
		}
		return nil, err
	}

	return &n, nil
}

func (r *PgRepository) Insert(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, in CreateInput) (*BloodNeed, error) {
	id := uuid.New()

	_, err := q.Exec(ctx, `
		INSERT INTO blood_needs (id, hospital_id, blood_type, units_needed, urgency, details, expires_at, posted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`, id, hospitalID, string(in.BloodType), in.UnitsNeeded, string(in.Urgency), in.Details, in.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert blood need: %w", err)
	}

	return r.Get(ctx, q, id, nil)
}

func (r *PgRepository) Get(ctx context.Context, q db.DBTX, id uuid.UUID, origin *domain.Point) (*BloodNeed, error) {
	args := []any{id}
	distance := "NULL::float8"
	if origin != nil {
		args = append(args, origin.Lat, origin.Lon)
		distance = "ST_Distance(h.location, " + geo.PointSQL(2, 3) + ") / 1000.0"
	}

	row := q.QueryRow(ctx, `
		SELECT `+needColumns+`, `+distance+`
		FROM blood_needs n
		JOIN hospitals h ON h.id = n.hospital_id
		WHERE n.id = $1
	`, args...)
	return scanNeed(row)
}

func (r *PgRepository) LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*BloodNeed, error) {
	row := q.QueryRow(ctx, `
		SELECT `+needColumns+`, NULL::float8
		FROM blood_needs n
		JOIN hospitals h ON h.id = n.hospital_id
		WHERE n.id = $1
		FOR UPDATE OF n
	`, id)
	return scanNeed(row)
}

func (r *PgRepository) Update(ctx context.Context, q db.DBTX, id uuid.UUID, p Patch) (*BloodNeed, error) {
	var urgency *string
	if p.Urgency != nil {
		u := string(*p.Urgency)
		urgency = &u
	}

	tag, err := q.Exec(ctx, `
		UPDATE blood_needs
		SET units_needed = COALESCE($2, units_needed),
		    urgency = COALESCE($3, urgency),
		    details = COALESCE($4, details),
		    expires_at = COALESCE($5, expires_at),
		    updated_at = now()
		WHERE id = $1
	`, id, p.UnitsNeeded, urgency, p.Details, p.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("update blood need: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNeedNotFound
	}

	return r.Get(ctx, q, id, nil)
}

func (r *PgRepository) Delete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM blood_needs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blood need: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNeedNotFound
	}
	return nil
}

func (r *PgRepository) AddFulfilled(ctx context.Context, q db.DBTX, id uuid.UUID, units int) (*BloodNeed, error) {
	tag, err := q.Exec(ctx, `
		UPDATE blood_needs
		SET fulfilled_units = fulfilled_units + $2,
		    updated_at = now()
		WHERE id = $1
	`, id, units)
	if err != nil {
		return nil, fmt.Errorf("add fulfilled units: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNeedNotFound
	}

	return r.Get(ctx, q, id, nil)
}

// buildActiveQuery renders the matching query. The radius predicate uses
// ST_DWithin on a parameter, so widening the radius only adds rows.
func buildActiveQuery(aq ActiveQuery) (string, []any) {
	args := []any{aq.Now}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	distance := "NULL::float8"
	var origin string
	if aq.Origin != nil {
		args = append(args, aq.Origin.Lat, aq.Origin.Lon)
		origin = geo.PointSQL(len(args)-1, len(args))
		distance = "ST_Distance(h.location, " + origin + ") / 1000.0"
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT ` + needColumns + `, ` + distance + ` AS distance_km
		FROM blood_needs n
		JOIN hospitals h ON h.id = n.hospital_id
		WHERE NOT n.is_fulfilled
		  AND (n.expires_at IS NULL OR n.expires_at > $1)`)

	if aq.BloodType != nil {
		sb.WriteString("\n\t\t  AND n.blood_type = " + arg(string(*aq.BloodType)))
	}
	if aq.Origin != nil && aq.MaxDistanceKm != nil {
		sb.WriteString("\n\t\t  AND ST_DWithin(h.location, " + origin + ", " + arg(*aq.MaxDistanceKm*1000) + ")")
	}

	sb.WriteString("\n\t\tORDER BY " + urgencyRankSQL)
	if aq.Origin != nil {
		sb.WriteString(", distance_km ASC NULLS LAST")
	} else {
		sb.WriteString(", n.posted_at DESC")
	}
	sb.WriteString(", n.id")

	return sb.String(), args
}

func (r *PgRepository) ListActive(ctx context.Context, q db.DBTX, aq ActiveQuery) ([]BloodNeed, error) {
	query, args := buildActiveQuery(aq)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active needs: %w", err)
	}
	return collectNeeds(rows)
}

func (r *PgRepository) ListForHospital(ctx context.Context, q db.DBTX, hospitalID uuid.UUID) ([]BloodNeed, error) {
	rows, err := q.Query(ctx, `
		SELECT `+needColumns+`, NULL::float8
		FROM blood_needs n
		JOIN hospitals h ON h.id = n.hospital_id
		WHERE n.hospital_id = $1
		ORDER BY n.posted_at DESC, n.id
	`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list hospital needs: %w", err)
	}
	return collectNeeds(rows)
}

func collectNeeds(rows pgx.Rows) ([]BloodNeed, error) {
	defer rows.Close()

	var result []BloodNeed
	for rows.Next() {
		n, err := scanNeed(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
