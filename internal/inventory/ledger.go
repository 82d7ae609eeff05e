package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

// Adjust applies delta to the (hospital, blood type) counter on q, which must
// be a transaction. The row stays locked until that transaction ends, so
// concurrent adjustments of the same pair are serialized.
func Adjust(
	ctx context.Context,
	repo Repository,
	q db.DBTX,
	hospitalID uuid.UUID,
	bloodType domain.BloodType,
	delta int,
	reason Reason,
	donationID *uuid.UUID,
) (*Entry, error) {
	if delta >= 0 {
		if err := repo.EnsureEntry(ctx, q, hospitalID, bloodType); err != nil {
			return nil, err
		}
	}

	entry, err := repo.LockEntry(ctx, q, hospitalID, bloodType)
	if err != nil {
		return nil, err
	}

	units := entry.UnitsInStock + delta
	if units < 0 {
		return nil, fmt.Errorf("%w: %s has %d units, cannot remove %d", ErrInsufficientStock, bloodType, entry.UnitsInStock, -delta)
	}

	updated, err := repo.SetUnits(ctx, q, entry.ID, units)
	if err != nil {
		return nil, err
	}

	err = repo.InsertMovement(ctx, q, Movement{
		InventoryID: updated.ID,
		BloodType:   bloodType,
		Delta:       delta,
		UnitsAfter:  updated.UnitsInStock,
		Reason:      reason,
		DonationID:  donationID,
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
