package donation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/blood-donation-coordination/internal/db"
)

const (
	donationColumns = `id, donor_id, hospital_id, appointment_id, need_id, donation_date,
		       blood_type_donated, units_donated, status, deferral_reason, created_at`

	appointmentUniqueIndex = "donations_appointment_id_key"
)

type PgRepository struct{}

func NewPgRepository() *PgRepository {
	return &PgRepository{}
}

func scanDonation(row pgx.Row) (*Donation, error) {
	var d Donation

	err := row.Scan(
		&d.ID,
		&d.DonorID,
		&d.HospitalID,
		&d.AppointmentID,
		&d.NeedID,
		&d.DonationDate,
		&d.BloodType,
		&d.UnitsDonated,
		&d.Status,
		&d.DeferralReason,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) DonorExists(ctx context.Context, q db.DBTX, donorID uuid.UUID) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM donors WHERE id = $1)`, donorID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check donor: %w", err)
	}
	return ok, nil
}

func (r *PgRepository) AppointmentHasDonation(ctx context.Context, q db.DBTX, appointmentID uuid.UUID) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM donations WHERE appointment_id = $1)`, appointmentID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check appointment donation: %w", err)
	}
	return ok, nil
}

func (r *PgRepository) Insert(ctx context.Context, q db.DBTX, d Donation) (*Donation, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO donations (id, donor_id, hospital_id, appointment_id, need_id, donation_date,
		                       blood_type_donated, units_donated, status, deferral_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING `+donationColumns,
		d.ID, d.DonorID, d.HospitalID, d.AppointmentID, d.NeedID, d.DonationDate,
		string(d.BloodType), d.UnitsDonated, string(d.Status), d.DeferralReason)

	created, err := scanDonation(row)
	if err != nil {
		if db.IsUniqueViolation(err, appointmentUniqueIndex) {
			return nil, ErrDuplicateDonation
		}
		return nil, fmt.Errorf("insert donation: %w", err)
	}
	return created, nil
}

func (r *PgRepository) TouchLastDonation(ctx context.Context, q db.DBTX, donorID uuid.UUID, date time.Time) error {
	tag, err := q.Exec(ctx, `
		UPDATE donors
		SET last_donation_date = GREATEST(last_donation_date, $2::date),
		    updated_at = now()
		WHERE id = $1
	`, donorID, date)
	if err != nil {
		return fmt.Errorf("update last donation date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDonorNotFound
	}
	return nil
}

func (r *PgRepository) ListByDonor(ctx context.Context, q db.DBTX, donorID uuid.UUID) ([]Donation, error) {
	rows, err := q.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations
		WHERE donor_id = $1
		ORDER BY donation_date DESC, created_at DESC
	`, donorID)
	if err != nil {
		return nil, fmt.Errorf("list donor donations: %w", err)
	}
	return collect(rows)
}

func (r *PgRepository) ListByHospital(ctx context.Context, q db.DBTX, hospitalID uuid.UUID) ([]Donation, error) {
	rows, err := q.Query(ctx, `
		SELECT `+donationColumns+`
		FROM donations
		WHERE hospital_id = $1
		ORDER BY donation_date DESC, created_at DESC
	`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list hospital donations: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Donation, error) {
	defer rows.Close()

	var result []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
