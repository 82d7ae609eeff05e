package donation

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type Status string

const (
	StatusSuccessful Status = "successful"
	StatusDeferred   Status = "deferred"
	StatusFailed     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSuccessful, StatusDeferred, StatusFailed:
		return true
	}
	return false
}

// Donation is immutable once recorded.
type Donation struct {
	ID             uuid.UUID
	DonorID        uuid.UUID
	HospitalID     uuid.UUID
	AppointmentID  *uuid.UUID
	NeedID         *uuid.UUID
	DonationDate   time.Time
	BloodType      domain.BloodType
	UnitsDonated   int
	Status         Status
	DeferralReason *string
	CreatedAt      time.Time
}

type RecordInput struct {
	DonorID        uuid.UUID
	Status         Status
	BloodType      domain.BloodType
	UnitsDonated   *int
	DeferralReason *string
	AppointmentID  *uuid.UUID
	NeedID         *uuid.UUID
	// DonationDate defaults to today.
	DonationDate *time.Time
}
