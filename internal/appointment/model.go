package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusNoShow      AppointmentStatus = "no_show"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined. Rescheduled is
// treated as terminal; a new appointment is booked instead.
func (s AppointmentStatus) Terminal() bool {
	return s != StatusScheduled
}

// allowedTargets is the role matrix for status changes.
var allowedTargets = map[domain.Role]map[AppointmentStatus]bool{
	domain.RoleDonor: {
		StatusCancelled:   true,
		StatusRescheduled: true,
	},
	domain.RoleHospitalAdmin: {
		StatusCompleted: true,
		StatusNoShow:    true,
		StatusCancelled: true,
	},
}

// CanTransition reports whether role may move an appointment into to.
func CanTransition(role domain.Role, to AppointmentStatus) bool {
	return allowedTargets[role][to]
}

type Appointment struct {
	ID          uuid.UUID
	DonorID     uuid.UUID
	HospitalID  uuid.UUID
	NeedID      *uuid.UUID
	ScheduledAt time.Time
	Status      AppointmentStatus
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BookInput struct {
	HospitalID  uuid.UUID
	ScheduledAt time.Time
	NeedID      *uuid.UUID
	Notes       *string
}
