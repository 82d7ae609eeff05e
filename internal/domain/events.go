package domain

import (
	"time"

	"github.com/google/uuid"
)

const EventNeedPosted = "need.posted"

// NeedPosted is emitted after an urgent or critical need is committed.
type NeedPosted struct {
	NeedID      uuid.UUID `json:"need_id"`
	HospitalID  uuid.UUID `json:"hospital_id"`
	BloodType   BloodType `json:"blood_type"`
	Urgency     Urgency   `json:"urgency"`
	UnitsNeeded int       `json:"units_needed"`
	PostedAt    time.Time `json:"posted_at"`
}
