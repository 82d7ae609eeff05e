package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
	redisclient "github.com/hackgods/blood-donation-coordination/internal/redis"
)

// Policy decides who gets alerted for a need.
type Policy struct {
	CriticalRadiusKm float64
	UrgentRadiusKm   float64
	DonationInterval time.Duration
	Parallel         int
}

// RadiusKm returns 0 for urgencies that are not announced.
func (p Policy) RadiusKm(u domain.Urgency) float64 {
	switch u {
	case domain.UrgencyCritical:
		return p.CriticalRadiusKm
	case domain.UrgencyUrgent:
		return p.UrgentRadiusKm
	default:
		return 0
	}
}

type Dispatcher struct {
	repo    Repository
	pool    db.DBTX
	donors  DonorFinder
	senders Senders
	locker  redisclient.Locker
	policy  Policy
	log     *zap.Logger
	now     func() time.Time
}

func NewDispatcher(
	repo Repository,
	pool db.DBTX,
	donors DonorFinder,
	senders Senders,
	locker redisclient.Locker,
	policy Policy,
	log *zap.Logger,
) *Dispatcher {
	if policy.Parallel <= 0 {
		policy.Parallel = 1
	}
	return &Dispatcher{
		repo:    repo,
		pool:    pool,
		donors:  donors,
		senders: senders,
		locker:  locker,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// Dispatch alerts eligible donors about a posted need. Delivery failures are
// recorded per donor and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.NeedPosted) error {
	log := d.log.With(zap.String("need_id", ev.NeedID.String()), zap.String("urgency", string(ev.Urgency)))

	if d.policy.RadiusKm(ev.Urgency) <= 0 {
		log.Debug("urgency not announced, skipping")
		return nil
	}

	err := d.locker.WithNeedLock(ctx, ev.NeedID, func(ctx context.Context) error {
		return d.dispatch(ctx, ev, log)
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		log.Info("need is being dispatched by another worker")
		return nil
	}
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, ev domain.NeedPosted, log *zap.Logger) error {
	need, err := d.repo.LoadNeed(ctx, d.pool, ev.NeedID)
	if errors.Is(err, ErrNeedNotFound) {
		log.Info("need no longer exists, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	now := d.now()
	if !need.Active(now) {
		log.Info("need no longer active, skipping")
		return nil
	}
	if need.HospitalLocation == nil {
		log.Warn("hospital has no location, cannot search donors")
		return nil
	}

	// Urgency may have changed since the event was published.
	radius := d.policy.RadiusKm(need.Urgency)
	if radius <= 0 {
		log.Debug("need downgraded, skipping")
		return nil
	}

	donors, err := d.donors.DonorsWithin(ctx, geo.DonorQuery{
		Center:             *need.HospitalLocation,
		RadiusKm:           radius,
		BloodType:          need.BloodType,
		LastDonationBefore: now.Add(-d.policy.DonationInterval),
	})
	if err != nil {
		return fmt.Errorf("find donors: %w", err)
	}

	sent, err := d.repo.SentDonors(ctx, d.pool, need.ID)
	if err != nil {
		return fmt.Errorf("load notified donors: %w", err)
	}

	log.Info("dispatching need alerts", zap.Int("candidates", len(donors)), zap.Float64("radius_km", radius))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.policy.Parallel)
	for _, donor := range donors {
		if _, ok := sent[donor.ID]; ok {
			continue
		}
		g.Go(func() error {
			d.notify(gctx, *need, donor, log)
			return nil
		})
	}
	return g.Wait()
}

// notify makes one attempt for one donor and records it.
func (d *Dispatcher) notify(ctx context.Context, need NeedDetails, donor geo.NearbyDonor, log *zap.Logger) {
	log = log.With(zap.String("donor_id", donor.ID.String()))

	channel, to, sender := d.route(donor.Donor)
	if sender == nil {
		log.Debug("donor has no usable contact, skipping")
		return
	}

	msg, err := Render(need, donor.FullName, donor.DistanceKm)
	if err != nil {
		log.Error("render alert", zap.Error(err))
		return
	}

	n := &Notification{
		DonorID: donor.ID,
		NeedID:  need.ID,
		Channel: channel,
		Message: msg.Text,
		Status:  StatusSent,
	}
	res, err := sender.Send(ctx, to, msg)
	if err != nil {
		reason := err.Error()
		n.Status = StatusFailed
		n.Error = &reason
		log.Warn("alert delivery failed", zap.String("channel", string(channel)), zap.Error(err))
	} else if res.ProviderRef != "" {
		ref := res.ProviderRef
		n.ProviderRef = &ref
	}

	if err := d.repo.Insert(context.WithoutCancel(ctx), d.pool, n); err != nil {
		log.Error("record notification", zap.Error(err))
	}
}

// route picks sms when preferred and a phone is present, otherwise email.
func (d *Dispatcher) route(donor domain.Donor) (domain.ContactChannel, string, Sender) {
	if donor.PreferredContact == domain.ContactSMS && donor.Phone != nil && *donor.Phone != "" {
		return domain.ContactSMS, *donor.Phone, d.senders.SMS
	}
	if donor.Email != nil && *donor.Email != "" {
		return domain.ContactEmail, *donor.Email, d.senders.Email
	}
	return "", "", nil
}
