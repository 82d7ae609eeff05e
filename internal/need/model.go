package need

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type BloodNeed struct {
	ID             uuid.UUID
	HospitalID     uuid.UUID
	HospitalName   string
	BloodType      domain.BloodType
	UnitsNeeded    int
	FulfilledUnits int
	IsFulfilled    bool
	Urgency        domain.Urgency
	Details        *string
	ExpiresAt      *time.Time
	PostedAt       time.Time
	UpdatedAt      time.Time

	// DistanceKm is set only for donor requesters with a stored location.
	DistanceKm *float64
}

type CreateInput struct {
	BloodType   domain.BloodType
	UnitsNeeded int
	Urgency     domain.Urgency
	Details     *string
	ExpiresAt   *time.Time
}

// Patch holds the hospital-editable fields. Nil fields are left unchanged.
type Patch struct {
	UnitsNeeded *int
	Urgency     *domain.Urgency
	Details     *string
	ExpiresAt   *time.Time
}

func (p Patch) Empty() bool {
	return p.UnitsNeeded == nil && p.Urgency == nil && p.Details == nil && p.ExpiresAt == nil
}

type Filter struct {
	BloodType     *domain.BloodType
	MaxDistanceKm *float64
}

// ActiveQuery is the resolved form of Filter handed to the repository.
type ActiveQuery struct {
	Now           time.Time
	BloodType     *domain.BloodType
	Origin        *domain.Point
	MaxDistanceKm *float64
}
