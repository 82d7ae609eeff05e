package need

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

var ErrNeedNotFound = errors.New("blood need not found")

type Repository interface {
	Insert(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, in CreateInput) (*BloodNeed, error)
	// Get computes DistanceKm from origin when origin is non-nil.
	Get(ctx context.Context, q db.DBTX, id uuid.UUID, origin *domain.Point) (*BloodNeed, error)
	// LockByID reads the need under FOR UPDATE.
	LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*BloodNeed, error)
	Update(ctx context.Context, q db.DBTX, id uuid.UUID, p Patch) (*BloodNeed, error)
	Delete(ctx context.Context, q db.DBTX, id uuid.UUID) error
	AddFulfilled(ctx context.Context, q db.DBTX, id uuid.UUID, units int) (*BloodNeed, error)

	ListActive(ctx context.Context, q db.DBTX, aq ActiveQuery) ([]BloodNeed, error)
	ListForHospital(ctx context.Context, q db.DBTX, hospitalID uuid.UUID) ([]BloodNeed, error)
}

// Locator resolves stored points; implemented by geo.Store.
type Locator interface {
	DonorLocation(ctx context.Context, donorID uuid.UUID) (*domain.Point, error)
	HospitalLocation(ctx context.Context, hospitalID uuid.UUID) (*domain.Point, error)
}

// Publisher hands need.posted events to the notification pipeline.
type Publisher interface {
	PublishNeedPosted(ctx context.Context, ev domain.NeedPosted) error
}
