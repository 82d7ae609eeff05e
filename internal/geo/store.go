package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

var (
	ErrDonorNotFound    = errors.New("donor not found")
	ErrHospitalNotFound = errors.New("hospital not found")
)

// NearbyDonor is a donor matched by a radius query.
type NearbyDonor struct {
	domain.Donor
	DistanceKm float64
}

// DonorQuery selects donors eligible to be alerted around a point.
type DonorQuery struct {
	Center    domain.Point
	RadiusKm  float64
	BloodType domain.BloodType
	// Donors whose last donation is on or after this date are excluded.
	LastDonationBefore time.Time
}

// Store reads and writes PostGIS geography points for donors and hospitals.
type Store struct {
	db db.DBTX
}

func NewStore(q db.DBTX) *Store {
	return &Store{db: q}
}

// PointSQL renders a geography literal for two positional parameters.
func PointSQL(latParam, lonParam int) string {
	return fmt.Sprintf("ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography", lonParam, latParam)
}

// DonorLocation returns nil when the donor exists but has no stored point.
func (s *Store) DonorLocation(ctx context.Context, donorID uuid.UUID) (*domain.Point, error) {
	return s.location(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry)
		FROM donors
		WHERE id = $1
	`, donorID, ErrDonorNotFound)
}

func (s *Store) HospitalLocation(ctx context.Context, hospitalID uuid.UUID) (*domain.Point, error) {
	return s.location(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry)
		FROM hospitals
		WHERE id = $1
	`, hospitalID, ErrHospitalNotFound)
}

func (s *Store) location(ctx context.Context, query string, id uuid.UUID, notFound error) (*domain.Point, error) {
	var lat, lon *float64
	if err := s.db.QueryRow(ctx, query, id).Scan(&lat, &lon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("load location: %w", err)
	}
	return toPoint(lat, lon), nil
}

func (s *Store) SetDonorLocation(ctx context.Context, donorID uuid.UUID, p domain.Point) error {
	return s.setLocation(ctx, "donors", donorID, p, ErrDonorNotFound)
}

func (s *Store) SetHospitalLocation(ctx context.Context, hospitalID uuid.UUID, p domain.Point) error {
	return s.setLocation(ctx, "hospitals", hospitalID, p, ErrHospitalNotFound)
}

func (s *Store) setLocation(ctx context.Context, table string, id uuid.UUID, p domain.Point, notFound error) error {
	if !p.Valid() {
		return domain.Invalid("location", "latitude or longitude out of range")
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE `+table+`
		SET location = `+PointSQL(2, 3)+`,
		    updated_at = now()
		WHERE id = $1
	`, id, p.Lat, p.Lon)
	if err != nil {
		return fmt.Errorf("update %s location: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// DistanceKm is the geodesic distance between two points.
func (s *Store) DistanceKm(ctx context.Context, a, b domain.Point) (float64, error) {
	var meters float64
	err := s.db.QueryRow(ctx,
		`SELECT ST_Distance(`+PointSQL(1, 2)+`, `+PointSQL(3, 4)+`)`,
		a.Lat, a.Lon, b.Lat, b.Lon,
	).Scan(&meters)
	if err != nil {
		return 0, fmt.Errorf("compute distance: %w", err)
	}
	return meters / 1000, nil
}

// DonorsWithin returns opted-in donors of the requested blood type inside the
// radius, nearest first.
func (s *Store) DonorsWithin(ctx context.Context, q DonorQuery) ([]NearbyDonor, error) {
	if q.RadiusKm <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT d.id, d.full_name, d.email, d.phone, d.blood_type,
		       ST_Y(d.location::geometry), ST_X(d.location::geometry),
		       d.last_donation_date, d.alerts_opt_in, d.preferred_contact,
		       d.created_at, d.updated_at,
		       ST_Distance(d.location, `+PointSQL(1, 2)+`) / 1000.0 AS distance_km
		FROM donors d
		WHERE d.blood_type = $3
		  AND d.alerts_opt_in
		  AND d.location IS NOT NULL
		  AND (d.last_donation_date IS NULL OR d.last_donation_date < $4)
		  AND ST_DWithin(d.location, `+PointSQL(1, 2)+`, $5)
		ORDER BY distance_km ASC, d.id
	`, q.Center.Lat, q.Center.Lon, string(q.BloodType), q.LastDonationBefore, q.RadiusKm*1000)
	if err != nil {
		return nil, fmt.Errorf("query donors within radius: %w", err)
	}
	defer rows.Close()

	var result []NearbyDonor
	for rows.Next() {
		var (
			d        NearbyDonor
			lat, lon *float64
		)
		err := rows.Scan(
			&d.ID,
			&d.FullName,
			&d.Email,
			&d.Phone,
			&d.BloodType,
			&lat,
			&lon,
			&d.LastDonationDate,
			&d.AlertsOptIn,
			&d.PreferredContact,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.DistanceKm,
		)
		if err != nil {
			return nil, fmt.Errorf("scan nearby donor: %w", err)
		}
		d.Location = toPoint(lat, lon)
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func toPoint(lat, lon *float64) *domain.Point {
	if lat == nil || lon == nil {
		return nil
	}
	return &domain.Point{Lat: *lat, Lon: *lon}
}
