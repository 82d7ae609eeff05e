package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

var BloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

func (b BloodType) Valid() bool {
	for _, t := range BloodTypes {
		if b == t {
			return true
		}
	}
	return false
}

type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyCritical:
		return true
	}
	return false
}

// Rank orders needs for display, most urgent first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 1
	case UrgencyUrgent:
		return 2
	case UrgencyNormal:
		return 3
	default:
		return 4
	}
}

type Role string

const (
	RoleDonor         Role = "donor"
	RoleHospitalAdmin Role = "hospital_admin"
	RoleSuperAdmin    Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleHospitalAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Actor is the caller identity supplied by the identity layer. For hospital
// admins UserID is also the hospital id.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsDonor() bool         { return a.Role == RoleDonor }
func (a Actor) IsHospitalAdmin() bool { return a.Role == RoleHospitalAdmin }

// HospitalID returns the acting hospital, or ErrForbidden for any other role.
func (a Actor) HospitalID() (uuid.UUID, error) {
	if a.Role != RoleHospitalAdmin {
		return uuid.Nil, fmt.Errorf("%w: hospital admin role required", ErrForbidden)
	}
	return a.UserID, nil
}

type ContactChannel string

const (
	ContactEmail ContactChannel = "email"
	ContactSMS   ContactChannel = "sms"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

type Donor struct {
	ID               uuid.UUID
	FullName         string
	Email            *string
	Phone            *string
	BloodType        BloodType
	Location         *Point
	LastDonationDate *time.Time
	AlertsOptIn      bool
	PreferredContact ContactChannel
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Hospital struct {
	ID           uuid.UUID
	Name         string
	Address      *string
	Phone        *string
	ContactEmail *string
	Location     *Point
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidationError reports bad or missing input. It is always returned before
// any transaction is opened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
