package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

// Repository reads and edits donor and hospital records. Points are written
// through Locations, never here.
type Repository interface {
	GetDonor(ctx context.Context, q db.DBTX, id uuid.UUID) (*domain.Donor, error)
	UpdateDonor(ctx context.Context, q db.DBTX, id uuid.UUID, p DonorPatch) error
	GetHospital(ctx context.Context, q db.DBTX, id uuid.UUID) (*domain.Hospital, error)
	UpdateHospital(ctx context.Context, q db.DBTX, id uuid.UUID, p HospitalPatch) error
	SearchDonors(ctx context.Context, q db.DBTX, s DonorSearch) ([]DonorMatch, error)
}

// Locations is the slice of the geospatial store used for profiles.
type Locations interface {
	DonorLocation(ctx context.Context, donorID uuid.UUID) (*domain.Point, error)
	HospitalLocation(ctx context.Context, hospitalID uuid.UUID) (*domain.Point, error)
	SetDonorLocation(ctx context.Context, donorID uuid.UUID, p domain.Point) error
	SetHospitalLocation(ctx context.Context, hospitalID uuid.UUID, p domain.Point) error
	DistanceKm(ctx context.Context, a, b domain.Point) (float64, error)
}
