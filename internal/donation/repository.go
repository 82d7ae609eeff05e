package donation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/need"
)

var (
	ErrDonorNotFound     = errors.New("donor not found")
	ErrDuplicateDonation = errors.New("donation already recorded for appointment")
)

type Repository interface {
	DonorExists(ctx context.Context, q db.DBTX, donorID uuid.UUID) (bool, error)
	AppointmentHasDonation(ctx context.Context, q db.DBTX, appointmentID uuid.UUID) (bool, error)
	// Insert maps a violation of the per-appointment unique index to ErrDuplicateDonation.
	Insert(ctx context.Context, q db.DBTX, d Donation) (*Donation, error)
	// TouchLastDonation moves the donor's last donation date forward, never back.
	TouchLastDonation(ctx context.Context, q db.DBTX, donorID uuid.UUID, date time.Time) error

	ListByDonor(ctx context.Context, q db.DBTX, donorID uuid.UUID) ([]Donation, error)
	ListByHospital(ctx context.Context, q db.DBTX, hospitalID uuid.UUID) ([]Donation, error)
}

// AppointmentStore is the part of the appointment ledger the recorder drives.
type AppointmentStore interface {
	LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, q db.DBTX, id uuid.UUID, from, to appointment.AppointmentStatus) (*appointment.Appointment, error)
}

// NeedStore is the part of the need registry the recorder drives.
type NeedStore interface {
	LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*need.BloodNeed, error)
	AddFulfilled(ctx context.Context, q db.DBTX, id uuid.UUID, units int) (*need.BloodNeed, error)
}
