package inventory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

type entryKey struct {
	hospitalID uuid.UUID
	bloodType  domain.BloodType
}

// memRepo is an in-memory Repository. memRepo.WithinTx serializes callers and
// restores the previous state when fn fails.
type memRepo struct {
	mu        sync.Mutex
	entries   map[entryKey]Entry
	movements []Movement
}

func newMemRepo() *memRepo {
	return &memRepo{entries: map[entryKey]Entry{}}
}

func (r *memRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, q db.DBTX) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := maps.Clone(r.entries)
	movements := append([]Movement(nil), r.movements...)

	if err := fn(ctx, nil); err != nil {
		r.entries = entries
		r.movements = movements
		return err
	}
	return nil
}

func (r *memRepo) seed(hospitalID uuid.UUID, bt domain.BloodType, units int) {
	r.entries[entryKey{hospitalID, bt}] = Entry{
		ID:            uuid.New(),
		HospitalID:    hospitalID,
		BloodType:     bt,
		UnitsInStock:  units,
		LastUpdatedAt: time.Now(),
	}
}

func (r *memRepo) units(hospitalID uuid.UUID, bt domain.BloodType) (int, bool) {
	e, ok := r.entries[entryKey{hospitalID, bt}]
	return e.UnitsInStock, ok
}

func (r *memRepo) EnsureEntry(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, bt domain.BloodType) error {
	if _, ok := r.entries[entryKey{hospitalID, bt}]; !ok {
		r.seed(hospitalID, bt, 0)
	}
	return nil
}

func (r *memRepo) LockEntry(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, bt domain.BloodType) (*Entry, error) {
	e, ok := r.entries[entryKey{hospitalID, bt}]
	if !ok {
		return nil, ErrNoSuchInventoryType
	}
	return &e, nil
}

func (r *memRepo) SetUnits(_ context.Context, _ db.DBTX, id uuid.UUID, units int) (*Entry, error) {
	for k, e := range r.entries {
		if e.ID == id {
			e.UnitsInStock = units
			e.LastUpdatedAt = time.Now()
			r.entries[k] = e
			return &e, nil
		}
	}
	return nil, ErrNoSuchInventoryType
}

func (r *memRepo) InsertMovement(_ context.Context, _ db.DBTX, m Movement) error {
	m.ID = int64(len(r.movements) + 1)
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, m)
	return nil
}

func (r *memRepo) ListEntries(_ context.Context, _ db.DBTX, hospitalID uuid.UUID) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if e.HospitalID == hospitalID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BloodType < out[j].BloodType })
	return out, nil
}

func (r *memRepo) ListMovements(_ context.Context, _ db.DBTX, hospitalID uuid.UUID, limit int) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := map[uuid.UUID]bool{}
	for _, e := range r.entries {
		if e.HospitalID == hospitalID {
			ids[e.ID] = true
		}
	}

	var out []Movement
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if ids[r.movements[i].InventoryID] {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}
