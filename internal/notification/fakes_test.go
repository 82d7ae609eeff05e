package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
	redisclient "github.com/hackgods/blood-donation-coordination/internal/redis"
)

type memRepo struct {
	mu      sync.Mutex
	needs   map[uuid.UUID]NeedDetails
	records []Notification
}

func newMemRepo() *memRepo {
	return &memRepo{needs: map[uuid.UUID]NeedDetails{}}
}

func (r *memRepo) LoadNeed(_ context.Context, _ db.DBTX, needID uuid.UUID) (*NeedDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.needs[needID]
	if !ok {
		return nil, ErrNeedNotFound
	}
	return &n, nil
}

func (r *memRepo) SentDonors(_ context.Context, _ db.DBTX, needID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := map[uuid.UUID]struct{}{}
	for _, n := range r.records {
		if n.NeedID == needID && n.Status == StatusSent {
			sent[n.DonorID] = struct{}{}
		}
	}
	return sent, nil
}

func (r *memRepo) Insert(_ context.Context, _ db.DBTX, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.New()
	r.records = append(r.records, *n)
	return nil
}

func (r *memRepo) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.records...)
}

type fakeFinder struct {
	donors  []geo.NearbyDonor
	err     error
	queries []geo.DonorQuery
}

func (f *fakeFinder) DonorsWithin(_ context.Context, q geo.DonorQuery) ([]geo.NearbyDonor, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []geo.NearbyDonor
	for _, d := range f.donors {
		if d.BloodType == q.BloodType && d.DistanceKm <= q.RadiusKm {
			out = append(out, d)
		}
	}
	return out, nil
}

type sentMessage struct {
	to  string
	msg Message
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
}

func (s *recordingSender) Send(_ context.Context, to string, msg Message) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{to: to, msg: msg})
	if s.fail != nil {
		return Result{}, s.fail
	}
	return Result{ProviderRef: "ref-" + to}, nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type passLocker struct{}

func (passLocker) WithNeedLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type busyLocker struct{}

func (busyLocker) WithNeedLock(context.Context, uuid.UUID, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

var errProvider = errors.New("provider down")
