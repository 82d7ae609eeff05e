package profile

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
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
	donors     map[uuid.UUID]*domain.Donor
	hospitals  map[uuid.UUID]*domain.Hospital
	lastSearch *DonorSearch
	matches    []DonorMatch
}

func newMemRepo() *memRepo {
	return &memRepo{
		donors:    map[uuid.UUID]*domain.Donor{},
		hospitals: map[uuid.UUID]*domain.Hospital{},
	}
}

func (r *memRepo) GetDonor(_ context.Context, _ db.DBTX, id uuid.UUID) (*domain.Donor, error) {
	d, ok := r.donors[id]
	if !ok {
		return nil, geo.ErrDonorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) UpdateDonor(_ context.Context, _ db.DBTX, id uuid.UUID, p DonorPatch) error {
	d, ok := r.donors[id]
	if !ok {
		return geo.ErrDonorNotFound
	}
	if p.FullName != nil {
		d.FullName = *p.FullName
	}
	if p.BloodType != nil {
		d.BloodType = *p.BloodType
	}
	if p.Phone != nil {
		d.Phone = nullable(*p.Phone)
	}
	if p.AlertsOptIn != nil {
		d.AlertsOptIn = *p.AlertsOptIn
	}
	if p.PreferredContact != nil {
		d.PreferredContact = *p.PreferredContact
	}
	return nil
}

func (r *memRepo) GetHospital(_ context.Context, _ db.DBTX, id uuid.UUID) (*domain.Hospital, error) {
	h, ok := r.hospitals[id]
	if !ok {
		return nil, geo.ErrHospitalNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *memRepo) UpdateHospital(_ context.Context, _ db.DBTX, id uuid.UUID, p HospitalPatch) error {
	h, ok := r.hospitals[id]
	if !ok {
		return geo.ErrHospitalNotFound
	}
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Address != nil {
		h.Address = nullable(*p.Address)
	}
	if p.Phone != nil {
		h.Phone = nullable(*p.Phone)
	}
	if p.ContactEmail != nil {
		h.ContactEmail = nullable(*p.ContactEmail)
	}
	return nil
}

func (r *memRepo) SearchDonors(_ context.Context, _ db.DBTX, s DonorSearch) ([]DonorMatch, error) {
	r.lastSearch = &s
	return r.matches, nil
}

// memLocations writes points straight into the repo records, the way the
// geospatial store writes the location column of the same rows.
type memLocations struct {
	repo      *memRepo
	distances int
}

func (l *memLocations) DonorLocation(_ context.Context, id uuid.UUID) (*domain.Point, error) {
	d, ok := l.repo.donors[id]
	if !ok {
		return nil, geo.ErrDonorNotFound
	}
	return d.Location, nil
}

func (l *memLocations) HospitalLocation(_ context.Context, id uuid.UUID) (*domain.Point, error) {
	h, ok := l.repo.hospitals[id]
	if !ok {
		return nil, geo.ErrHospitalNotFound
	}
	return h.Location, nil
}

func (l *memLocations) SetDonorLocation(_ context.Context, id uuid.UUID, p domain.Point) error {
	d, ok := l.repo.donors[id]
	if !ok {
		return geo.ErrDonorNotFound
	}
	d.Location = &p
	return nil
}

func (l *memLocations) SetHospitalLocation(_ context.Context, id uuid.UUID, p domain.Point) error {
	h, ok := l.repo.hospitals[id]
	if !ok {
		return geo.ErrHospitalNotFound
	}
	h.Location = &p
	return nil
}

// DistanceKm uses a flat 111 km per degree of latitude; tests only move north.
func (l *memLocations) DistanceKm(_ context.Context, a, b domain.Point) (float64, error) {
	l.distances++
	d := (b.Lat - a.Lat) * 111
	if d < 0 {
		d = -d
	}
	return d, nil
}
