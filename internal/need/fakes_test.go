package need

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
)

type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context, q db.DBTX) error) error {
	return fn(ctx, nil)
}

type memRepo struct {
	needs     map[uuid.UUID]*BloodNeed
	lastQuery *ActiveQuery
}

func newMemRepo() *memRepo {
	return &memRepo{needs: map[uuid.UUID]*BloodNeed{}}
}

func (r *memRepo) add(hospitalID uuid.UUID, units int, urgency domain.Urgency) *BloodNeed {
	n := &BloodNeed{
		ID:          uuid.New(),
		HospitalID:  hospitalID,
		BloodType:   domain.BloodTypeONeg,
		UnitsNeeded: units,
		Urgency:     urgency,
		PostedAt:    time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.needs[n.ID] = n
	return n
}

func (r *memRepo) Insert(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, in CreateInput) (*BloodNeed, error) {
	n := &BloodNeed{
		ID:          uuid.New(),
		HospitalID:  hospitalID,
		BloodType:   in.BloodType,
		UnitsNeeded: in.UnitsNeeded,
		Urgency:     in.Urgency,
		Details:     in.Details,
		ExpiresAt:   in.ExpiresAt,
		PostedAt:    time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.needs[n.ID] = n
	cp := *n
	return &cp, nil
}

func (r *memRepo) Get(_ context.Context, _ db.DBTX, id uuid.UUID, _ *domain.Point) (*BloodNeed, error) {
	n, ok := r.needs[id]
	if !ok {
		return nil, ErrNeedNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memRepo) LockByID(ctx context.Context, q db.DBTX, id uuid.UUID) (*BloodNeed, error) {
	return r.Get(ctx, q, id, nil)
}

func (r *memRepo) Update(ctx context.Context, q db.DBTX, id uuid.UUID, p Patch) (*BloodNeed, error) {
	n, ok := r.needs[id]
	if !ok {
		return nil, ErrNeedNotFound
	}
	if p.UnitsNeeded != nil {
		n.UnitsNeeded = *p.UnitsNeeded
	}
	if p.Urgency != nil {
		n.Urgency = *p.Urgency
	}
	if p.Details != nil {
		n.Details = p.Details
	}
	if p.ExpiresAt != nil {
		n.ExpiresAt = p.ExpiresAt
	}
	n.IsFulfilled = n.FulfilledUnits >= n.UnitsNeeded
	return r.Get(ctx, q, id, nil)
}

func (r *memRepo) Delete(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	if _, ok := r.needs[id]; !ok {
		return ErrNeedNotFound
	}
	delete(r.needs, id)
	return nil
}

func (r *memRepo) AddFulfilled(ctx context.Context, q db.DBTX, id uuid.UUID, units int) (*BloodNeed, error) {
	n, ok := r.needs[id]
	if !ok {
		return nil, ErrNeedNotFound
	}
	n.FulfilledUnits += units
	n.IsFulfilled = n.FulfilledUnits >= n.UnitsNeeded
	return r.Get(ctx, q, id, nil)
}

func (r *memRepo) ListActive(_ context.Context, _ db.DBTX, aq ActiveQuery) ([]BloodNeed, error) {
	r.lastQuery = &aq
	var out []BloodNeed
	for _, n := range r.needs {
		if !n.IsFulfilled && (n.ExpiresAt == nil || n.ExpiresAt.After(aq.Now)) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *memRepo) ListForHospital(_ context.Context, _ db.DBTX, hospitalID uuid.UUID) ([]BloodNeed, error) {
	var out []BloodNeed
	for _, n := range r.needs {
		if n.HospitalID == hospitalID {
			out = append(out, *n)
		}
	}
	return out, nil
}

type fakeLocator struct {
	donors    map[uuid.UUID]*domain.Point
	hospitals map[uuid.UUID]*domain.Point
}

func (l *fakeLocator) DonorLocation(_ context.Context, id uuid.UUID) (*domain.Point, error) {
	p, ok := l.donors[id]
	if !ok {
		return nil, geo.ErrDonorNotFound
	}
	return p, nil
}

func (l *fakeLocator) HospitalLocation(_ context.Context, id uuid.UUID) (*domain.Point, error) {
	p, ok := l.hospitals[id]
	if !ok {
		return nil, geo.ErrHospitalNotFound
	}
	return p, nil
}

type fakePublisher struct {
	events []domain.NeedPosted
	err    error
}

func (p *fakePublisher) PublishNeedPosted(_ context.Context, ev domain.NeedPosted) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

var errStreamDown = errors.New("stream down")
