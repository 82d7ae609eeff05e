package need

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
)

type Service struct {
	repo      Repository
	pool      db.DBTX
	tx        db.Transactor
	locator   Locator
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, pool db.DBTX, tx db.Transactor, locator Locator, publisher Publisher, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		pool:      pool,
		tx:        tx,
		locator:   locator,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create posts a need for the acting hospital. Urgent and critical needs are
// announced on the need.posted stream after commit; publish failures are
// logged and never undo the need.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*BloodNeed, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	if _, err := s.locator.HospitalLocation(ctx, hospitalID); err != nil {
		if errors.Is(err, geo.ErrHospitalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load hospital: %w", err)
	}

	var created *BloodNeed
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		n, err := s.repo.Insert(ctx, q, hospitalID, in)
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create blood need: %w", err)
	}

	s.log.Info("blood need posted",
		zap.String("need_id", created.ID.String()),
		zap.String("hospital_id", hospitalID.String()),
		zap.String("blood_type", string(created.BloodType)),
		zap.String("urgency", string(created.Urgency)),
	)

	if created.Urgency == domain.UrgencyUrgent || created.Urgency == domain.UrgencyCritical {
		s.announce(ctx, created)
	}

	return created, nil
}

func (s *Service) announce(ctx context.Context, n *BloodNeed) {
	ev := domain.NeedPosted{
		NeedID:      n.ID,
		HospitalID:  n.HospitalID,
		BloodType:   n.BloodType,
		Urgency:     n.Urgency,
		UnitsNeeded: n.UnitsNeeded,
		PostedAt:    n.PostedAt,
	}
	if err := s.publisher.PublishNeedPosted(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Error("publish need posted",
			zap.String("need_id", n.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) validateCreate(in CreateInput) error {
	if !in.BloodType.Valid() {
		return domain.Invalid("blood_type", "unknown blood type %q", in.BloodType)
	}
	if in.UnitsNeeded <= 0 {
		return domain.Invalid("units_needed", "must be a positive integer")
	}
	if !in.Urgency.Valid() {
		return domain.Invalid("urgency", "must be one of normal, urgent, critical")
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return domain.Invalid("expires_at", "must be in the future")
	}
	return nil
}

// ListActive returns unfulfilled, unexpired needs. Donors with a stored
// location get per-need distances and may filter by radius; for everyone else
// distance stays nil and the radius is ignored.
func (s *Service) ListActive(ctx context.Context, actor domain.Actor, f Filter) ([]BloodNeed, error) {
	if f.BloodType != nil && !f.BloodType.Valid() {
		return nil, domain.Invalid("bloodType", "unknown blood type %q", *f.BloodType)
	}
	if f.MaxDistanceKm != nil && !validRadius(*f.MaxDistanceKm) {
		return nil, domain.Invalid("maxDistanceKm", "must be a positive finite number")
	}

	origin, err := s.requesterOrigin(ctx, actor)
	if err != nil {
		return nil, err
	}

	aq := ActiveQuery{
		Now:       s.now(),
		BloodType: f.BloodType,
		Origin:    origin,
	}
	if origin != nil {
		aq.MaxDistanceKm = f.MaxDistanceKm
	}

	needs, err := s.repo.ListActive(ctx, s.pool, aq)
	if err != nil {
		return nil, fmt.Errorf("list active needs: %w", err)
	}
	return needs, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*BloodNeed, error) {
	origin, err := s.requesterOrigin(ctx, actor)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.Get(ctx, s.pool, id, origin)
	if err != nil {
		if errors.Is(err, ErrNeedNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get blood need: %w", err)
	}
	return n, nil
}

func (s *Service) ListForHospital(ctx context.Context, actor domain.Actor) ([]BloodNeed, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}

	needs, err := s.repo.ListForHospital(ctx, s.pool, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list hospital needs: %w", err)
	}
	return needs, nil
}

// Update edits the hospital-owned fields of a need. fulfilled_units is not
// editable here; only recorded donations move it.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, p Patch) (*BloodNeed, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return nil, domain.Invalid("", "no fields provided for update")
	}
	if p.UnitsNeeded != nil && *p.UnitsNeeded <= 0 {
		return nil, domain.Invalid("units_needed", "must be a positive integer")
	}
	if p.Urgency != nil && !p.Urgency.Valid() {
		return nil, domain.Invalid("urgency", "must be one of normal, urgent, critical")
	}

	var updated *BloodNeed
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		if err := s.lockOwned(ctx, q, id, hospitalID); err != nil {
			return err
		}
		n, err := s.repo.Update(ctx, q, id, p)
		if err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update blood need: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		if err := s.lockOwned(ctx, q, id, hospitalID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return fmt.Errorf("delete blood need: %w", err)
	}

	s.log.Info("blood need deleted",
		zap.String("need_id", id.String()),
		zap.String("hospital_id", hospitalID.String()),
	)
	return nil
}

func (s *Service) lockOwned(ctx context.Context, q db.DBTX, id, hospitalID uuid.UUID) error {
	n, err := s.repo.LockByID(ctx, q, id)
	if err != nil {
		return err
	}
	if n.HospitalID != hospitalID {
		return fmt.Errorf("%w: need belongs to another hospital", domain.ErrForbidden)
	}
	return nil
}

// requesterOrigin is the donor's stored point, or nil for other roles and
// donors without a location.
func (s *Service) requesterOrigin(ctx context.Context, actor domain.Actor) (*domain.Point, error) {
	if !actor.IsDonor() {
		return nil, nil
	}

	p, err := s.locator.DonorLocation(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, geo.ErrDonorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load donor location: %w", err)
	}
	return p, nil
}

func validRadius(km float64) bool {
	return km > 0 && !math.IsInf(km, 0) && !math.IsNaN(km)
}
