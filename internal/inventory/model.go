package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type Reason string

const (
	ReasonManual   Reason = "manual"
	ReasonDonation Reason = "donation"
)

type Entry struct {
	ID            uuid.UUID
	HospitalID    uuid.UUID
	BloodType     domain.BloodType
	UnitsInStock  int
	LastUpdatedAt time.Time
}

// Movement is one applied adjustment. Movements are never updated.
type Movement struct {
	ID          int64
	InventoryID uuid.UUID
	BloodType   domain.BloodType
	Delta       int
	UnitsAfter  int
	Reason      Reason
	DonationID  *uuid.UUID
	CreatedAt   time.Time
}
