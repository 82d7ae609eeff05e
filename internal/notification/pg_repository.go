package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type PgRepository struct{}

func NewPgRepository() *PgRepository {
	return &PgRepository{}
}

func (r *PgRepository) LoadNeed(ctx context.Context, q db.DBTX, needID uuid.UUID) (*NeedDetails, error) {
	var (
		n        NeedDetails
		lat, lon *float64
	)
	err := q.QueryRow(ctx, `
		SELECT n.id, n.hospital_id, h.name, n.blood_type, n.units_needed, n.urgency,
		       n.is_fulfilled, n.expires_at,
		       ST_Y(h.location::geometry), ST_X(h.location::geometry)
		FROM blood_needs n
		JOIN hospitals h ON h.id = n.hospital_id
		WHERE n.id = $1
	`, needID).Scan(
		&n.ID,
		&n.HospitalID,
		&n.HospitalName,
		&n.BloodType,
		&n.UnitsNeeded,
		&n.Urgency,
		&n.IsFulfilled,
		&n.ExpiresAt,
		&lat,
		&lon,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNeedNotFound
		}
		return nil, fmt.Errorf("load need for dispatch: %w", err)
	}
	if lat != nil && lon != nil {
		n.HospitalLocation = &domain.Point{Lat: *lat, Lon: *lon}
	}
	return &n, nil
}

func (r *PgRepository) SentDonors(ctx context.Context, q db.DBTX, needID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := q.Query(ctx, `
		SELECT DISTINCT donor_id
		FROM notifications
		WHERE need_id = $1 AND status = $2
	`, needID, string(StatusSent))
	if err != nil {
		return nil, fmt.Errorf("query notified donors: %w", err)
	}
	defer rows.Close()

	sent := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan notified donor: %w", err)
		}
		sent[id] = struct{}{}
	}
	return sent, rows.Err()
}

func (r *PgRepository) Insert(ctx context.Context, q db.DBTX, n *Notification) error {
	err := q.QueryRow(ctx, `
		INSERT INTO notifications (donor_id, need_id, channel, message, status, provider_ref, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, n.DonorID, n.NeedID, string(n.Channel), n.Message, string(n.Status), n.ProviderRef, n.Error,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
