package profile

import (
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

// DonorPatch holds the donor-editable fields. Nil fields are left unchanged;
// an empty Phone clears the stored number.
type DonorPatch struct {
	FullName         *string
	BloodType        *domain.BloodType
	Phone            *string
	Location         *domain.Point
	AlertsOptIn      *bool
	PreferredContact *domain.ContactChannel
}

func (p DonorPatch) Empty() bool {
	return p.FullName == nil && p.BloodType == nil && p.Phone == nil &&
		p.Location == nil && p.AlertsOptIn == nil && p.PreferredContact == nil
}

// HospitalPatch holds the hospital-editable fields. Empty optional strings
// clear the stored value.
type HospitalPatch struct {
	Name         *string
	Address      *string
	Phone        *string
	ContactEmail *string
	Location     *domain.Point
}

func (p HospitalPatch) Empty() bool {
	return p.Name == nil && p.Address == nil && p.Phone == nil && p.ContactEmail == nil && p.Location == nil
}

// HospitalView is a hospital as seen by one requester. DistanceKm is set for
// donors when both sides have a stored point.
type HospitalView struct {
	domain.Hospital
	DistanceKm *float64
}

// SearchQuery is the hospital-facing donor lookup. Text matches name, email
// or phone.
type SearchQuery struct {
	Text          string
	BloodType     *domain.BloodType
	AlertsOptIn   *bool
	MaxDistanceKm *float64
	Limit         int
}

// DonorSearch is the resolved form of SearchQuery handed to the repository.
type DonorSearch struct {
	Text          string
	BloodType     *domain.BloodType
	AlertsOptIn   *bool
	Origin        *domain.Point
	MaxDistanceKm *float64
	Limit         int
}

type DonorMatch struct {
	domain.Donor
	// DistanceKm is measured from the searching hospital when it has a point.
	DistanceKm *float64
}
