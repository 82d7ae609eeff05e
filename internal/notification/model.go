package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Notification records one delivery attempt to one donor.
type Notification struct {
	ID          uuid.UUID
	DonorID     uuid.UUID
	NeedID      uuid.UUID
	Channel     domain.ContactChannel
	Message     string
	Status      Status
	ProviderRef *string
	Error       *string
	CreatedAt   time.Time
}

// Message is the rendered alert. SMS uses Text only.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type Result struct {
	ProviderRef string
}

// NeedDetails is the slice of a blood need the dispatcher renders and searches around.
type NeedDetails struct {
	ID               uuid.UUID
	HospitalID       uuid.UUID
	HospitalName     string
	BloodType        domain.BloodType
	UnitsNeeded      int
	Urgency          domain.Urgency
	IsFulfilled      bool
	ExpiresAt        *time.Time
	HospitalLocation *domain.Point
}

// Active reports whether the need still accepts donations at now.
func (n NeedDetails) Active(now time.Time) bool {
	return !n.IsFulfilled && (n.ExpiresAt == nil || n.ExpiresAt.After(now))
}
