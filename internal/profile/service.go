package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	minSearchText      = 2
)

type Service struct {
	repo Repository
	pool db.DBTX
	tx   db.Transactor
	// locations binds the geospatial store to a handle so point writes join
	// the profile transaction.
	locations func(q db.DBTX) Locations
	log       *zap.Logger
}

func NewService(repo Repository, pool db.DBTX, tx db.Transactor, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		pool: pool,
		tx:   tx,
		locations: func(q db.DBTX) Locations {
			return geo.NewStore(q)
		},
		log: log,
	}
}

func (s *Service) DonorProfile(ctx context.Context, actor domain.Actor) (*domain.Donor, error) {
	if !actor.IsDonor() {
		return nil, fmt.Errorf("%w: only donors have a donor profile", domain.ErrForbidden)
	}
	return s.repo.GetDonor(ctx, s.pool, actor.UserID)
}

// UpdateDonorProfile edits the acting donor's contact, alert and location
// settings in one transaction.
func (s *Service) UpdateDonorProfile(ctx context.Context, actor domain.Actor, p DonorPatch) (*domain.Donor, error) {
	if !actor.IsDonor() {
		return nil, fmt.Errorf("%w: only donors can update a donor profile", domain.ErrForbidden)
	}
	p, err := normalizeDonorPatch(p)
	if err != nil {
		return nil, err
	}

	var updated *domain.Donor
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		if err := s.repo.UpdateDonor(ctx, q, actor.UserID, p); err != nil {
			return err
		}
		if p.Location != nil {
			if err := s.locations(q).SetDonorLocation(ctx, actor.UserID, *p.Location); err != nil {
				return err
			}
		}
		d, err := s.repo.GetDonor(ctx, q, actor.UserID)
		if err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("donor profile updated",
		zap.String("donor_id", actor.UserID.String()),
		zap.Bool("location_changed", p.Location != nil),
		zap.Bool("alerts_opt_in", updated.AlertsOptIn),
		zap.String("preferred_contact", string(updated.PreferredContact)),
	)
	return updated, nil
}

func normalizeDonorPatch(p DonorPatch) (DonorPatch, error) {
	if p.Empty() {
		return p, domain.Invalid("", "no fields provided for update")
	}
	if p.FullName != nil {
		name := strings.TrimSpace(*p.FullName)
		if name == "" {
			return p, domain.Invalid("full_name", "must not be blank")
		}
		p.FullName = &name
	}
	if p.BloodType != nil && !p.BloodType.Valid() {
		return p, domain.Invalid("blood_type", "unknown blood type %q", *p.BloodType)
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		p.Phone = &phone
	}
	if p.PreferredContact != nil && *p.PreferredContact != domain.ContactEmail && *p.PreferredContact != domain.ContactSMS {
		return p, domain.Invalid("preferred_contact", "must be one of email, sms")
	}
	if p.Location != nil && !p.Location.Valid() {
		return p, domain.Invalid("location", "latitude or longitude out of range")
	}
	return p, nil
}

func (s *Service) HospitalProfile(ctx context.Context, actor domain.Actor) (*domain.Hospital, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}
	return s.repo.GetHospital(ctx, s.pool, hospitalID)
}

func (s *Service) UpdateHospitalProfile(ctx context.Context, actor domain.Actor, p HospitalPatch) (*domain.Hospital, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}
	p, err = normalizeHospitalPatch(p)
	if err != nil {
		return nil, err
	}

	var updated *domain.Hospital
	err = s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		if err := s.repo.UpdateHospital(ctx, q, hospitalID, p); err != nil {
			return err
		}
		if p.Location != nil {
			if err := s.locations(q).SetHospitalLocation(ctx, hospitalID, *p.Location); err != nil {
				return err
			}
		}
		h, err := s.repo.GetHospital(ctx, q, hospitalID)
		if err != nil {
			return err
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("hospital profile updated",
		zap.String("hospital_id", hospitalID.String()),
		zap.Bool("location_changed", p.Location != nil),
	)
	return updated, nil
}

func normalizeHospitalPatch(p HospitalPatch) (HospitalPatch, error) {
	if p.Empty() {
		return p, domain.Invalid("", "no fields provided for update")
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return p, domain.Invalid("name", "must not be blank")
		}
		p.Name = &name
	}
	for _, f := range []**string{&p.Address, &p.Phone, &p.ContactEmail} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	if p.Location != nil && !p.Location.Valid() {
		return p, domain.Invalid("location", "latitude or longitude out of range")
	}
	return p, nil
}

// Hospital returns a hospital's public record. Donors with a stored point
// also get the distance to it.
func (s *Service) Hospital(ctx context.Context, actor domain.Actor, id uuid.UUID) (*HospitalView, error) {
	h, err := s.repo.GetHospital(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}

	view := &HospitalView{Hospital: *h}
	if !actor.IsDonor() || h.Location == nil {
		return view, nil
	}

	locations := s.locations(s.pool)
	origin, err := locations.DonorLocation(ctx, actor.UserID)
	if err != nil && !errors.Is(err, geo.ErrDonorNotFound) {
		return nil, fmt.Errorf("load donor location: %w", err)
	}
	if origin == nil {
		return view, nil
	}

	km, err := locations.DistanceKm(ctx, *origin, *h.Location)
	if err != nil {
		return nil, err
	}
	view.DistanceKm = &km
	return view, nil
}

// SearchDonors lets a hospital admin look donors up by name, email or phone,
// optionally narrowed by blood type, alert opt-in and distance from the
// hospital.
func (s *Service) SearchDonors(ctx context.Context, actor domain.Actor, sq SearchQuery) ([]DonorMatch, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(sq.Text)
	if text == "" && sq.BloodType == nil && sq.AlertsOptIn == nil && sq.MaxDistanceKm == nil {
		return nil, domain.Invalid("", "at least one of q, bloodType, available or maxDistanceKm is required")
	}
	if text != "" && len([]rune(text)) < minSearchText {
		return nil, domain.Invalid("q", "must be at least %d characters", minSearchText)
	}
	if sq.BloodType != nil && !sq.BloodType.Valid() {
		return nil, domain.Invalid("bloodType", "unknown blood type %q", *sq.BloodType)
	}
	if sq.MaxDistanceKm != nil && !validRadius(*sq.MaxDistanceKm) {
		return nil, domain.Invalid("maxDistanceKm", "must be a positive finite number")
	}

	limit := sq.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	origin, err := s.locations(s.pool).HospitalLocation(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if sq.MaxDistanceKm != nil && origin == nil {
		return nil, domain.Invalid("maxDistanceKm", "hospital has no stored location")
	}

	matches, err := s.repo.SearchDonors(ctx, s.pool, DonorSearch{
		Text:          text,
		BloodType:     sq.BloodType,
		AlertsOptIn:   sq.AlertsOptIn,
		Origin:        origin,
		MaxDistanceKm: sq.MaxDistanceKm,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func validRadius(km float64) bool {
	return km > 0 && !math.IsInf(km, 0) && !math.IsNaN(km)
}
