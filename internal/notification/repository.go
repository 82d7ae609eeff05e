package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
)

var ErrNeedNotFound = errors.New("blood need not found")

type Repository interface {
	LoadNeed(ctx context.Context, q db.DBTX, needID uuid.UUID) (*NeedDetails, error)
	// SentDonors lists donors that already received a successful alert for the need.
	SentDonors(ctx context.Context, q db.DBTX, needID uuid.UUID) (map[uuid.UUID]struct{}, error)
	Insert(ctx context.Context, q db.DBTX, n *Notification) error
}

// DonorFinder is satisfied by *geo.Store.
type DonorFinder interface {
	DonorsWithin(ctx context.Context, q geo.DonorQuery) ([]geo.NearbyDonor, error)
}
