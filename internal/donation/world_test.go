package donation

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
	"github.com/hackgods/blood-donation-coordination/internal/need"
)

type stockKey struct {
	hospitalID uuid.UUID
	bloodType  domain.BloodType
}

// world is an in-memory database shared by the fakes below. WithinTx
// serializes transactions and restores every table when fn fails.
type world struct {
	mu sync.Mutex

	lastDonation map[uuid.UUID]*time.Time
	appointments map[uuid.UUID]appointment.Appointment
	needs        map[uuid.UUID]need.BloodNeed
	stock        map[stockKey]inventory.Entry
	movements    []inventory.Movement
	donations    []Donation

	failStock error
}

func newWorld() *world {
	return &world{
		lastDonation: map[uuid.UUID]*time.Time{},
		appointments: map[uuid.UUID]appointment.Appointment{},
		needs:        map[uuid.UUID]need.BloodNeed{},
		stock:        map[stockKey]inventory.Entry{},
	}
}

func (w *world) WithinTx(ctx context.Context, fn func(ctx context.Context, q db.DBTX) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	lastDonation := maps.Clone(w.lastDonation)
	appointments := maps.Clone(w.appointments)
	needs := maps.Clone(w.needs)
	stock := maps.Clone(w.stock)
	movements := append([]inventory.Movement(nil), w.movements...)
	donations := append([]Donation(nil), w.donations...)

	if err := fn(ctx, nil); err != nil {
		w.lastDonation = lastDonation
		w.appointments = appointments
		w.needs = needs
		w.stock = stock
		w.movements = movements
		w.donations = donations
		return err
	}
	return nil
}

func (w *world) addDonor() uuid.UUID {
	id := uuid.New()
	w.lastDonation[id] = nil
	return id
}

func (w *world) addAppointment(donorID, hospitalID uuid.UUID) uuid.UUID {
	a := appointment.Appointment{
		ID:          uuid.New(),
		DonorID:     donorID,
		HospitalID:  hospitalID,
		ScheduledAt: time.Now().Add(time.Hour),
		Status:      appointment.StatusScheduled,
	}
	w.appointments[a.ID] = a
	return a.ID
}

func (w *world) addNeed(hospitalID uuid.UUID, units int) uuid.UUID {
	n := need.BloodNeed{
		ID:          uuid.New(),
		HospitalID:  hospitalID,
		BloodType:   domain.BloodTypeONeg,
		UnitsNeeded: units,
		Urgency:     domain.UrgencyCritical,
	}
	w.needs[n.ID] = n
	return n.ID
}

func (w *world) units(hospitalID uuid.UUID, bt domain.BloodType) int {
	return w.stock[stockKey{hospitalID, bt}].UnitsInStock
}

// Repository

func (w *world) DonorExists(_ context.Context, _ db.DBTX, donorID uuid.UUID) (bool, error) {
	_, ok := w.lastDonation[donorID]
	return ok, nil
}

func (w *world) AppointmentHasDonation(_ context.Context, _ db.DBTX, appointmentID uuid.UUID) (bool, error) {
	for _, d := range w.donations {
		if d.AppointmentID != nil && *d.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (w *world) Insert(ctx context.Context, q db.DBTX, d Donation) (*Donation, error) {
	if d.AppointmentID != nil {
		if dup, _ := w.AppointmentHasDonation(ctx, q, *d.AppointmentID); dup {
			return nil, ErrDuplicateDonation
		}
	}
	d.CreatedAt = time.Now()
	w.donations = append(w.donations, d)
	return &d, nil
}

func (w *world) TouchLastDonation(_ context.Context, _ db.DBTX, donorID uuid.UUID, date time.Time) error {
	cur, ok := w.lastDonation[donorID]
	if !ok {
		return ErrDonorNotFound
	}
	if cur == nil || date.After(*cur) {
		w.lastDonation[donorID] = &date
	}
	return nil
}

func (w *world) ListByDonor(_ context.Context, _ db.DBTX, donorID uuid.UUID) ([]Donation, error) {
	var out []Donation
	for _, d := range w.donations {
		if d.DonorID == donorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (w *world) ListByHospital(_ context.Context, _ db.DBTX, hospitalID uuid.UUID) ([]Donation, error) {
	var out []Donation
	for _, d := range w.donations {
		if d.HospitalID == hospitalID {
			out = append(out, d)
		}
	}
	return out, nil
}

// AppointmentStore

type worldAppointments struct{ w *world }

func (a worldAppointments) LockByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*appointment.Appointment, error) {
	appt, ok := a.w.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &appt, nil
}

func (a worldAppointments) UpdateStatus(_ context.Context, _ db.DBTX, id uuid.UUID, from, to appointment.AppointmentStatus) (*appointment.Appointment, error) {
	appt, ok := a.w.appointments[id]
	if !ok || appt.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}
	appt.Status = to
	a.w.appointments[id] = appt
	return &appt, nil
}

// NeedStore

type worldNeeds struct{ w *world }

func (n worldNeeds) LockByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*need.BloodNeed, error) {
	bn, ok := n.w.needs[id]
	if !ok {
		return nil, need.ErrNeedNotFound
	}
	return &bn, nil
}

func (n worldNeeds) AddFulfilled(_ context.Context, _ db.DBTX, id uuid.UUID, units int) (*need.BloodNeed, error) {
	bn, ok := n.w.needs[id]
	if !ok {
		return nil, need.ErrNeedNotFound
	}
	bn.FulfilledUnits += units
	bn.IsFulfilled = bn.FulfilledUnits >= bn.UnitsNeeded
	n.w.needs[id] = bn
	return &bn, nil
}

// inventory.Repository

type worldStock struct{ w *world }

func (s worldStock) EnsureEntry(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, bt domain.BloodType) error {
	k := stockKey{hospitalID, bt}
	if _, ok := s.w.stock[k]; !ok {
		s.w.stock[k] = inventory.Entry{ID: uuid.New(), HospitalID: hospitalID, BloodType: bt}
	}
	return nil
}

func (s worldStock) LockEntry(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, bt domain.BloodType) (*inventory.Entry, error) {
	e, ok := s.w.stock[stockKey{hospitalID, bt}]
	if !ok {
		return nil, inventory.ErrNoSuchInventoryType
	}
	return &e, nil
}

func (s worldStock) SetUnits(_ context.Context, _ db.DBTX, id uuid.UUID, units int) (*inventory.Entry, error) {
	if s.w.failStock != nil {
		return nil, s.w.failStock
	}
	for k, e := range s.w.stock {
		if e.ID == id {
			e.UnitsInStock = units
			s.w.stock[k] = e
			return &e, nil
		}
	}
	return nil, inventory.ErrNoSuchInventoryType
}

func (s worldStock) InsertMovement(_ context.Context, _ db.DBTX, m inventory.Movement) error {
	s.w.movements = append(s.w.movements, m)
	return nil
}

func (s worldStock) ListEntries(context.Context, db.DBTX, uuid.UUID) ([]inventory.Entry, error) {
	return nil, errors.New("not used")
}

func (s worldStock) ListMovements(context.Context, db.DBTX, uuid.UUID, int) ([]inventory.Movement, error) {
	return nil, errors.New("not used")
}
