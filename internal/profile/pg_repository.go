package profile

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

const donorColumns = `d.id, d.full_name, d.email, d.phone, d.blood_type,
	ST_Y(d.location::geometry), ST_X(d.location::geometry),
	d.last_donation_date, d.alerts_opt_in, d.preferred_contact,
	d.created_at, d.updated_at`

const hospitalColumns = `h.id, h.name, h.address, h.phone, h.contact_email,
	ST_Y(h.location::geometry), ST_X(h.location::geometry),
	h.created_at, h.updated_at`

type PgRepository struct{}

func NewPgRepository() *PgRepository {
	return &PgRepository{}
}

func (r *PgRepository) GetDonor(ctx context.Context, q db.DBTX, id uuid.UUID) (*domain.Donor, error) {
	row := q.QueryRow(ctx, `SELECT `+donorColumns+` FROM donors d WHERE d.id = $1`, id)

	var (
		d  domain.Donor
		pt coords
	)
	if err := row.Scan(donorDest(&d, &pt)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, geo.ErrDonorNotFound
		}
		return nil, fmt.Errorf("load donor: %w", err)
	}
	d.Location = pt.point()
	return &d, nil
}

func (r *PgRepository) UpdateDonor(ctx context.Context, q db.DBTX, id uuid.UUID, p DonorPatch) error {
	u := newUpdate("donors", id)
	if p.FullName != nil {
		u.set("full_name", *p.FullName)
	}
	if p.BloodType != nil {
		u.set("blood_type", string(*p.BloodType))
	}
	if p.Phone != nil {
		u.set("phone", nullable(*p.Phone))
	}
	if p.AlertsOptIn != nil {
		u.set("alerts_opt_in", *p.AlertsOptIn)
	}
	if p.PreferredContact != nil {
		u.set("preferred_contact", string(*p.PreferredContact))
	}
	return u.exec(ctx, q, geo.ErrDonorNotFound)
}

func (r *PgRepository) GetHospital(ctx context.Context, q db.DBTX, id uuid.UUID) (*domain.Hospital, error) {
	row := q.QueryRow(ctx, `SELECT `+hospitalColumns+` FROM hospitals h WHERE h.id = $1`, id)

	var (
		h  domain.Hospital
		pt coords
	)
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Address,
		&h.Phone,
		&h.ContactEmail,
		&pt.lat,
		&pt.lon,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, geo.ErrHospitalNotFound
		}
		return nil, fmt.Errorf("load hospital: %w", err)
	}
	h.Location = pt.point()
	return &h, nil
}

func (r *PgRepository) UpdateHospital(ctx context.Context, q db.DBTX, id uuid.UUID, p HospitalPatch) error {
	u := newUpdate("hospitals", id)
	if p.Name != nil {
		u.set("name", *p.Name)
	}
	if p.Address != nil {
		u.set("address", nullable(*p.Address))
	}
	if p.Phone != nil {
		u.set("phone", nullable(*p.Phone))
	}
	if p.ContactEmail != nil {
		u.set("contact_email", nullable(*p.ContactEmail))
	}
	return u.exec(ctx, q, geo.ErrHospitalNotFound)
}

func (r *PgRepository) SearchDonors(ctx context.Context, q db.DBTX, s DonorSearch) ([]DonorMatch, error) {
	query, args := buildSearchQuery(s)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search donors: %w", err)
	}
	defer rows.Close()

	var result []DonorMatch
	for rows.Next() {
		var (
			m  DonorMatch
			pt coords
		)
		dest := append(donorDest(&m.Donor, &pt), &m.DistanceKm)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		m.Location = pt.point()
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// buildSearchQuery renders the donor lookup. With an origin every row carries
// its distance and rows are ordered nearest first, donors without a point last.
func buildSearchQuery(s DonorSearch) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	distance := "NULL::float8"
	var origin string
	if s.Origin != nil {
		arg(s.Origin.Lat)
		arg(s.Origin.Lon)
		origin = geo.PointSQL(1, 2)
		distance = "ST_Distance(d.location, " + origin + ") / 1000.0"
	}

	b.WriteString(`SELECT ` + donorColumns + `, ` + distance + ` AS distance_km
		FROM donors d
		WHERE TRUE`)

	if s.Text != "" {
		p := arg("%" + escapeLike(strings.ToLower(s.Text)) + "%")
		fmt.Fprintf(&b, `
		  AND (LOWER(d.full_name) LIKE %[1]s
		       OR LOWER(COALESCE(d.email, '')) LIKE %[1]s
		       OR COALESCE(d.phone, '') LIKE %[1]s)`, p)
	}
	if s.BloodType != nil {
		b.WriteString("\n\t\t  AND d.blood_type = " + arg(string(*s.BloodType)))
	}
	if s.AlertsOptIn != nil {
		b.WriteString("\n\t\t  AND d.alerts_opt_in = " + arg(*s.AlertsOptIn))
	}
	if s.Origin != nil && s.MaxDistanceKm != nil {
		b.WriteString("\n\t\t  AND ST_DWithin(d.location, " + origin + ", " + arg(*s.MaxDistanceKm*1000) + ")")
	}

	if s.Origin != nil {
		b.WriteString("\n\t\tORDER BY distance_km ASC NULLS LAST, d.full_name, d.id")
	} else {
		b.WriteString("\n\t\tORDER BY d.full_name, d.id")
	}
	b.WriteString("\n\t\tLIMIT " + arg(s.Limit))

	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Helpers

type coords struct {
	lat, lon *float64
}

func (c coords) point() *domain.Point {
	if c.lat == nil || c.lon == nil {
		return nil
	}
	return &domain.Point{Lat: *c.lat, Lon: *c.lon}
}

func donorDest(d *domain.Donor, pt *coords) []any {
	return []any{
		&d.ID,
		&d.FullName,
		&d.Email,
		&d.Phone,
		&d.BloodType,
		&pt.lat,
		&pt.lon,
		&d.LastDonationDate,
		&d.AlertsOptIn,
		&d.PreferredContact,
		&d.CreatedAt,
		&d.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// update collects SET clauses for a partial UPDATE by id.
type update struct {
	table string
	sets  []string
	args  []any
}

func newUpdate(table string, id uuid.UUID) *update {
	return &update{table: table, sets: []string{"updated_at = now()"}, args: []any{id}}
}

func (u *update) set(column string, v any) {
	u.args = append(u.args, v)
	u.sets = append(u.sets, fmt.Sprintf("%s = $%d", column, len(u.args)))
}

func (u *update) exec(ctx context.Context, q db.DBTX, notFound error) error {
	tag, err := q.Exec(ctx, `UPDATE `+u.table+` SET `+strings.Join(u.sets, ", ")+` WHERE id = $1`, u.args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", u.table, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
