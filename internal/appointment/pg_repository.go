package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/blood-donation-coordination/internal/db"
)

const appointmentColumns = `id, donor_id, hospital_id, need_id, scheduled_at, status, notes, created_at, updated_at`

type PgRepository struct{}

func NewPgRepository() *PgRepository {
	return &PgRepository{}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DonorID,
		&a.HospitalID,
		&a.NeedID,
		&a.ScheduledAt,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func exists(ctx context.Context, q db.DBTX, query string, id uuid.UUID) (bool, error) {
	var ok bool
	if err := q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Interface methods

func (r *PgRepository) DonorExists(ctx context.Context, q db.DBTX, id uuid.UUID) (bool, error) {
	return exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM donors WHERE id = $1)`, id)
}

func (r *PgRepository) HospitalExists(ctx context.Context, q db.DBTX, id uuid.UUID) (bool, error) {
	return exists(ctx, q, `SELECT EXISTS (SELECT 1 FROM hospitals WHERE id = $1)`, id)
}

func (r *PgRepository) NeedHospital(ctx context.Context, q db.DBTX, needID uuid.UUID) (uuid.UUID, error) {
	var hospitalID uuid.UUID
	err := q.QueryRow(ctx, `SELECT hospital_id FROM blood_needs WHERE id = $1`, needID).Scan(&hospitalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNeedNotFound
		}
		return uuid.Nil, err
	}
	return hospitalID, nil
}

func (r *PgRepository) Create(ctx context.Context, q db.DBTX, donorID uuid.UUID, in BookInput) (*Appointment, error) {
	id := uuid.New()

	row := q.QueryRow(ctx, `
		INSERT INTO appointments (id, donor_id, hospital_id, need_id, scheduled_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6, now(), now())
		RETURNING `+appointmentColumns,
		id, donorID, in.HospitalID, in.NeedID, in.ScheduledAt, in.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*Appointment, error) {
	row := q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanAppointment(row)
}

// UpdateStatus is a compare-and-set on the current status; a row that moved
// on in the meantime yields ErrAppointmentNotFound.
func (r *PgRepository) UpdateStatus(ctx context.Context, q db.DBTX, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))

	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, q db.DBTX, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListByDonor(ctx context.Context, q db.DBTX, donorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE donor_id = $1
		ORDER BY scheduled_at DESC, id
		LIMIT $2 OFFSET $3
	`, donorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list donor appointments: %w", err)
	}
	return collect(rows)
}

func (r *PgRepository) ListByHospital(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE hospital_id = $1
		ORDER BY scheduled_at DESC, id
		LIMIT $2 OFFSET $3
	`, hospitalID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list hospital appointments: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
