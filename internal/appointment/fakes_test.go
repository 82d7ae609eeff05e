package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
)

type lockingTx struct {
	mu sync.Mutex
}

func (t *lockingTx) WithinTx(ctx context.Context, fn func(ctx context.Context, q db.DBTX) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, nil)
}

type memRepo struct {
	donors       map[uuid.UUID]bool
	hospitals    map[uuid.UUID]bool
	needs        map[uuid.UUID]uuid.UUID
	appointments map[uuid.UUID]*Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{
		donors:       map[uuid.UUID]bool{},
		hospitals:    map[uuid.UUID]bool{},
		needs:        map[uuid.UUID]uuid.UUID{},
		appointments: map[uuid.UUID]*Appointment{},
	}
}

func (r *memRepo) scheduled(donorID, hospitalID uuid.UUID) *Appointment {
	a := &Appointment{
		ID:          uuid.New(),
		DonorID:     donorID,
		HospitalID:  hospitalID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      StatusScheduled,
	}
	r.appointments[a.ID] = a
	return a
}

func (r *memRepo) DonorExists(_ context.Context, _ db.DBTX, id uuid.UUID) (bool, error) {
	return r.donors[id], nil
}

func (r *memRepo) HospitalExists(_ context.Context, _ db.DBTX, id uuid.UUID) (bool, error) {
	return r.hospitals[id], nil
}

func (r *memRepo) NeedHospital(_ context.Context, _ db.DBTX, needID uuid.UUID) (uuid.UUID, error) {
	h, ok := r.needs[needID]
	if !ok {
		return uuid.Nil, ErrNeedNotFound
	}
	return h, nil
}

func (r *memRepo) Create(_ context.Context, _ db.DBTX, donorID uuid.UUID, in BookInput) (*Appointment, error) {
	a := &Appointment{
		ID:          uuid.New(),
		DonorID:     donorID,
		HospitalID:  in.HospitalID,
		NeedID:      in.NeedID,
		ScheduledAt: in.ScheduledAt,
		Status:      StatusScheduled,
		Notes:       in.Notes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.appointments[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *memRepo) LockByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, _ db.DBTX, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *memRepo) ListByDonor(_ context.Context, _ db.DBTX, donorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.appointments {
		if a.DonorID == donorID {
			out = append(out, *a)
		}
	}
	return page(out, limit, offset), nil
}

func (r *memRepo) ListByHospital(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, limit, offset int) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.appointments {
		if a.HospitalID == hospitalID {
			out = append(out, *a)
		}
	}
	return page(out, limit, offset), nil
}

func page(in []Appointment, limit, offset int) []Appointment {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if len(in) > limit {
		in = in[:limit]
	}
	return in
}
