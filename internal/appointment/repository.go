package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
)

var (
	ErrDonorNotFound       = errors.New("donor not found")
	ErrHospitalNotFound    = errors.New("hospital not found")
	ErrNeedNotFound        = errors.New("blood need not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service. Methods run
// on the handle they are given so the caller owns the transaction.
type Repository interface {
	DonorExists(ctx context.Context, q db.DBTX, id uuid.UUID) (bool, error)
	HospitalExists(ctx context.Context, q db.DBTX, id uuid.UUID) (bool, error)
	// NeedHospital returns the hospital owning the need.
	NeedHospital(ctx context.Context, q db.DBTX, needID uuid.UUID) (uuid.UUID, error)

	Create(ctx context.Context, q db.DBTX, donorID uuid.UUID, in BookInput) (*Appointment, error)
	// LockByID reads the appointment under FOR UPDATE.
	LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, q db.DBTX, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	Delete(ctx context.Context, q db.DBTX, id uuid.UUID) error

	ListByDonor(ctx context.Context, q db.DBTX, donorID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByHospital(ctx context.Context, q db.DBTX, hospitalID uuid.UUID, limit, offset int) ([]Appointment, error)
}
