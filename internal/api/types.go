package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/donation"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
	"github.com/hackgods/blood-donation-coordination/internal/need"
	"github.com/hackgods/blood-donation-coordination/internal/profile"
)

type CreateNeedRequest struct {
	BloodType   string     `json:"blood_type" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	UnitsNeeded int        `json:"units_needed" validate:"required,gt=0,max=10000"`
	Urgency     string     `json:"urgency" validate:"required,oneof=normal urgent critical"`
	Details     *string    `json:"details" validate:"omitempty,max=2000"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type UpdateNeedRequest struct {
	UnitsNeeded *int       `json:"units_needed" validate:"omitempty,gt=0,max=10000"`
	Urgency     *string    `json:"urgency" validate:"omitempty,oneof=normal urgent critical"`
	Details     *string    `json:"details" validate:"omitempty,max=2000"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type BookAppointmentRequest struct {
	HospitalID  uuid.UUID  `json:"hospital_id" validate:"required"`
	ScheduledAt time.Time  `json:"scheduled_at" validate:"required"`
	NeedID      *uuid.UUID `json:"need_id"`
	Notes       *string    `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RecordDonationRequest struct {
	DonorID        uuid.UUID  `json:"donor_id" validate:"required"`
	Status         string     `json:"status" validate:"required,oneof=successful deferred failed"`
	BloodType      string     `json:"blood_type" validate:"required"`
	UnitsDonated   *int       `json:"units_donated" validate:"omitempty,min=0,max=100"`
	DeferralReason *string    `json:"deferral_reason" validate:"omitempty,max=500"`
	AppointmentID  *uuid.UUID `json:"appointment_id"`
	NeedID         *uuid.UUID `json:"need_id"`
	DonationDate   *time.Time `json:"donation_date"`
}

type AdjustInventoryRequest struct {
	BloodType string `json:"blood_type" validate:"required"`
	Delta     int    `json:"delta" validate:"min=-100000,max=100000"`
}

type UpdateDonorProfileRequest struct {
	FullName         *string       `json:"full_name" validate:"omitempty,max=200"`
	BloodType        *string       `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Phone            *string       `json:"phone" validate:"omitempty,max=32"`
	Location         *domain.Point `json:"location"`
	AlertsOptIn      *bool         `json:"alerts_opt_in"`
	PreferredContact *string       `json:"preferred_contact" validate:"omitempty,oneof=email sms"`
}

type UpdateHospitalProfileRequest struct {
	Name         *string       `json:"name" validate:"omitempty,max=200"`
	Address      *string       `json:"address" validate:"omitempty,max=500"`
	Phone        *string       `json:"phone" validate:"omitempty,max=32"`
	ContactEmail *string       `json:"contact_email" validate:"omitempty,email"`
	Location     *domain.Point `json:"location"`
}

type NeedResponse struct {
	ID             uuid.UUID        `json:"id"`
	HospitalID     uuid.UUID        `json:"hospital_id"`
	HospitalName   string           `json:"hospital_name,omitempty"`
	BloodType      domain.BloodType `json:"blood_type"`
	UnitsNeeded    int              `json:"units_needed"`
	FulfilledUnits int              `json:"fulfilled_units"`
	IsFulfilled    bool             `json:"is_fulfilled"`
	Urgency        domain.Urgency   `json:"urgency"`
	Details        *string          `json:"details,omitempty"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	PostedAt       time.Time        `json:"posted_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DistanceKm     *float64         `json:"distance_km"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	DonorID     uuid.UUID  `json:"donor_id"`
	HospitalID  uuid.UUID  `json:"hospital_id"`
	NeedID      *uuid.UUID `json:"need_id,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type DonationResponse struct {
	ID             uuid.UUID        `json:"id"`
	DonorID        uuid.UUID        `json:"donor_id"`
	HospitalID     uuid.UUID        `json:"hospital_id"`
	AppointmentID  *uuid.UUID       `json:"appointment_id,omitempty"`
	NeedID         *uuid.UUID       `json:"need_id,omitempty"`
	DonationDate   string           `json:"donation_date"`
	BloodType      domain.BloodType `json:"blood_type"`
	UnitsDonated   int              `json:"units_donated"`
	Status         string           `json:"status"`
	DeferralReason *string          `json:"deferral_reason,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type InventoryEntryResponse struct {
	BloodType     domain.BloodType `json:"blood_type"`
	UnitsInStock  int              `json:"units_in_stock"`
	LastUpdatedAt time.Time        `json:"last_updated_at"`
}

type AdjustInventoryResponse struct {
	BloodType domain.BloodType `json:"blood_type"`
	NewStock  int              `json:"new_stock"`
}

type DonorProfileResponse struct {
	ID               uuid.UUID             `json:"id"`
	FullName         string                `json:"full_name"`
	Email            *string               `json:"email,omitempty"`
	Phone            *string               `json:"phone,omitempty"`
	BloodType        domain.BloodType      `json:"blood_type"`
	Location         *domain.Point         `json:"location"`
	LastDonationDate *string               `json:"last_donation_date"`
	AlertsOptIn      bool                  `json:"alerts_opt_in"`
	PreferredContact domain.ContactChannel `json:"preferred_contact"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type DonorSearchResponse struct {
	DonorProfileResponse
	DistanceKm *float64 `json:"distance_km"`
}

type HospitalResponse struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Address      *string       `json:"address,omitempty"`
	Phone        *string       `json:"phone,omitempty"`
	ContactEmail *string       `json:"contact_email,omitempty"`
	Location     *domain.Point `json:"location"`
	DistanceKm   *float64      `json:"distance_km,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toNeedResponse(n need.BloodNeed) NeedResponse {
	return NeedResponse{
		ID:             n.ID,
		HospitalID:     n.HospitalID,
		HospitalName:   n.HospitalName,
		BloodType:      n.BloodType,
		UnitsNeeded:    n.UnitsNeeded,
		FulfilledUnits: n.FulfilledUnits,
		IsFulfilled:    n.IsFulfilled,
		Urgency:        n.Urgency,
		Details:        n.Details,
		ExpiresAt:      n.ExpiresAt,
		PostedAt:       n.PostedAt,
		UpdatedAt:      n.UpdatedAt,
		DistanceKm:     n.DistanceKm,
	}
}

func toNeedResponses(list []need.BloodNeed) []NeedResponse {
	out := make([]NeedResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNeedResponse(n))
	}
	return out
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DonorID:     a.DonorID,
		HospitalID:  a.HospitalID,
		NeedID:      a.NeedID,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toDonationResponse(d donation.Donation) DonationResponse {
	return DonationResponse{
		ID:             d.ID,
		DonorID:        d.DonorID,
		HospitalID:     d.HospitalID,
		AppointmentID:  d.AppointmentID,
		NeedID:         d.NeedID,
		DonationDate:   d.DonationDate.Format(time.DateOnly),
		BloodType:      d.BloodType,
		UnitsDonated:   d.UnitsDonated,
		Status:         string(d.Status),
		DeferralReason: d.DeferralReason,
		CreatedAt:      d.CreatedAt,
	}
}

func toInventoryResponses(list []inventory.Entry) []InventoryEntryResponse {
	out := make([]InventoryEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, InventoryEntryResponse{
			BloodType:     e.BloodType,
			UnitsInStock:  e.UnitsInStock,
			LastUpdatedAt: e.LastUpdatedAt,
		})
	}
	return out
}

func toDonorProfileResponse(d domain.Donor) DonorProfileResponse {
	resp := DonorProfileResponse{
		ID:               d.ID,
		FullName:         d.FullName,
		Email:            d.Email,
		Phone:            d.Phone,
		BloodType:        d.BloodType,
		Location:         d.Location,
		AlertsOptIn:      d.AlertsOptIn,
		PreferredContact: d.PreferredContact,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.LastDonationDate != nil {
		day := d.LastDonationDate.Format(time.DateOnly)
		resp.LastDonationDate = &day
	}
	return resp
}

func toDonorSearchResponses(list []profile.DonorMatch) []DonorSearchResponse {
	out := make([]DonorSearchResponse, 0, len(list))
	for _, m := range list {
		out = append(out, DonorSearchResponse{
			DonorProfileResponse: toDonorProfileResponse(m.Donor),
			DistanceKm:           m.DistanceKm,
		})
	}
	return out
}

func toHospitalResponse(h domain.Hospital, distanceKm *float64) HospitalResponse {
	return HospitalResponse{
		ID:           h.ID,
		Name:         h.Name,
		Address:      h.Address,
		Phone:        h.Phone,
		ContactEmail: h.ContactEmail,
		Location:     h.Location,
		DistanceKm:   distanceKm,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}
