package inventory

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

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry

	err := row.Scan(
		&e.ID,
		&e.HospitalID,
		&e.BloodType,
		&e.UnitsInStock,
		&e.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSuchInventoryType
		}
		return nil, err
	}

	return &e, nil
}

func (r *PgRepository) EnsureEntry(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, bloodType domain.BloodType) error {
	_, err := q.Exec(ctx, `
		INSERT INTO hospital_inventories (id, hospital_id, blood_type, units_in_stock, last_updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (hospital_id, blood_type) DO NOTHING
	`, uuid.New(), hospitalID, string(bloodType))
	if err != nil {
		return fmt.Errorf("ensure inventory entry: %w", err)
	}
	return nil
}

func (r *PgRepository) LockEntry(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, bloodType domain.BloodType) (*Entry, error) {
	row := q.QueryRow(ctx, `
		SELECT id, hospital_id, blood_type, units_in_stock, last_updated_at
		FROM hospital_inventories
		WHERE hospital_id = $1 AND blood_type = $2
		FOR UPDATE
	`, hospitalID, string(bloodType))
	return scanEntry(row)
}

func (r *PgRepository) SetUnits(ctx context.Context, q db.DBTX, id uuid.UUID, units int) (*Entry, error) {
	row := q.QueryRow(ctx, `
		UPDATE hospital_inventories
		SET units_in_stock = $2,
		    last_updated_at = now()
		WHERE id = $1
		RETURNING id, hospital_id, blood_type, units_in_stock, last_updated_at
	`, id, units)

	e, err := scanEntry(row)
	if err != nil {
		if db.IsCheckViolation(err, "hospital_inventories_units_non_negative") {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("set inventory units: %w", err)
	}
	return e, nil
}

func (r *PgRepository) InsertMovement(ctx context.Context, q db.DBTX, m Movement) error {
	_, err := q.Exec(ctx, `
		INSERT INTO inventory_movements (inventory_id, delta, units_after, reason, donation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, m.InventoryID, m.Delta, m.UnitsAfter, string(m.Reason), m.DonationID)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

func (r *PgRepository) ListEntries(ctx context.Context, q db.DBTX, hospitalID uuid.UUID) ([]Entry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, hospital_id, blood_type, units_in_stock, last_updated_at
		FROM hospital_inventories
		WHERE hospital_id = $1
		ORDER BY blood_type
	`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListMovements(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, limit int) ([]Movement, error) {
	rows, err := q.Query(ctx, `
		SELECT m.id, m.inventory_id, i.blood_type, m.delta, m.units_after, m.reason, m.donation_id, m.created_at
		FROM inventory_movements m
		JOIN hospital_inventories i ON i.id = m.inventory_id
		WHERE i.hospital_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2
	`, hospitalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()

	var result []Movement
	for rows.Next() {
		var m Movement
		err := rows.Scan(
			&m.ID,
			&m.InventoryID,
			&m.BloodType,
			&m.Delta,
			&m.UnitsAfter,
			&m.Reason,
			&m.DonationID,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
