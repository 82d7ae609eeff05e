package api

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/donation"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
	"github.com/hackgods/blood-donation-coordination/internal/need"
	"github.com/hackgods/blood-donation-coordination/internal/profile"
)

type stubNeeds struct {
	create     func(domain.Actor, need.CreateInput) (*need.BloodNeed, error)
	listActive func(domain.Actor, need.Filter) ([]need.BloodNeed, error)
	get        func(domain.Actor, uuid.UUID) (*need.BloodNeed, error)
	update     func(domain.Actor, uuid.UUID, need.Patch) (*need.BloodNeed, error)
	del        func(domain.Actor, uuid.UUID) error
}

func (s *stubNeeds) Create(_ context.Context, a domain.Actor, in need.CreateInput) (*need.BloodNeed, error) {
	return s.create(a, in)
}

func (s *stubNeeds) ListActive(_ context.Context, a domain.Actor, f need.Filter) ([]need.BloodNeed, error) {
	return s.listActive(a, f)
}

func (s *stubNeeds) Get(_ context.Context, a domain.Actor, id uuid.UUID) (*need.BloodNeed, error) {
	return s.get(a, id)
}

func (s *stubNeeds) ListForHospital(context.Context, domain.Actor) ([]need.BloodNeed, error) {
	return nil, nil
}

func (s *stubNeeds) Update(_ context.Context, a domain.Actor, id uuid.UUID, p need.Patch) (*need.BloodNeed, error) {
	return s.update(a, id, p)
}

func (s *stubNeeds) Delete(_ context.Context, a domain.Actor, id uuid.UUID) error {
	return s.del(a, id)
}

type stubAppointments struct {
	book       func(domain.Actor, appointment.BookInput) (*appointment.Appointment, error)
	transition func(domain.Actor, uuid.UUID, appointment.AppointmentStatus) (*appointment.Appointment, error)
	list       func(domain.Actor, int, int) ([]appointment.Appointment, error)
	del        func(domain.Actor, uuid.UUID) error
}

func (s *stubAppointments) Book(_ context.Context, a domain.Actor, in appointment.BookInput) (*appointment.Appointment, error) {
	return s.book(a, in)
}

func (s *stubAppointments) TransitionStatus(_ context.Context, a domain.Actor, id uuid.UUID, to appointment.AppointmentStatus) (*appointment.Appointment, error) {
	return s.transition(a, id, to)
}

func (s *stubAppointments) ListForActor(_ context.Context, a domain.Actor, limit, offset int) ([]appointment.Appointment, error) {
	return s.list(a, limit, offset)
}

func (s *stubAppointments) Delete(_ context.Context, a domain.Actor, id uuid.UUID) error {
	return s.del(a, id)
}

type stubDonations struct {
	record func(domain.Actor, donation.RecordInput) (*donation.Donation, error)
}

func (s *stubDonations) RecordDonation(_ context.Context, a domain.Actor, in donation.RecordInput) (*donation.Donation, error) {
	return s.record(a, in)
}

func (s *stubDonations) ListForActor(context.Context, domain.Actor) ([]donation.Donation, error) {
	return nil, nil
}

type stubInventory struct {
	adjust func(domain.Actor, domain.BloodType, int) (int, error)
	list   func(domain.Actor) ([]inventory.Entry, error)
	export func(domain.Actor, io.Writer) error
}

func (s *stubInventory) AdjustStock(_ context.Context, a domain.Actor, bt domain.BloodType, delta int) (int, error) {
	return s.adjust(a, bt, delta)
}

func (s *stubInventory) List(_ context.Context, a domain.Actor) ([]inventory.Entry, error) {
	return s.list(a)
}

func (s *stubInventory) Export(_ context.Context, a domain.Actor, w io.Writer) error {
	return s.export(a, w)
}

type stubProfiles struct {
	donor          func(domain.Actor) (*domain.Donor, error)
	updateDonor    func(domain.Actor, profile.DonorPatch) (*domain.Donor, error)
	hospital       func(domain.Actor) (*domain.Hospital, error)
	updateHospital func(domain.Actor, profile.HospitalPatch) (*domain.Hospital, error)
	view           func(domain.Actor, uuid.UUID) (*profile.HospitalView, error)
	search         func(domain.Actor, profile.SearchQuery) ([]profile.DonorMatch, error)
}

func (s *stubProfiles) DonorProfile(_ context.Context, a domain.Actor) (*domain.Donor, error) {
	return s.donor(a)
}

func (s *stubProfiles) UpdateDonorProfile(_ context.Context, a domain.Actor, p profile.DonorPatch) (*domain.Donor, error) {
	return s.updateDonor(a, p)
}

func (s *stubProfiles) HospitalProfile(_ context.Context, a domain.Actor) (*domain.Hospital, error) {
	return s.hospital(a)
}

func (s *stubProfiles) UpdateHospitalProfile(_ context.Context, a domain.Actor, p profile.HospitalPatch) (*domain.Hospital, error) {
	return s.updateHospital(a, p)
}

func (s *stubProfiles) Hospital(_ context.Context, a domain.Actor, id uuid.UUID) (*profile.HospitalView, error) {
	return s.view(a, id)
}

func (s *stubProfiles) SearchDonors(_ context.Context, a domain.Actor, q profile.SearchQuery) ([]profile.DonorMatch, error) {
	return s.search(a, q)
}
