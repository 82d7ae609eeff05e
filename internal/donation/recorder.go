package donation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
)

// Recorder records donations. A recorded donation, the donor's last donation
// date, the hospital stock, need fulfillment and appointment completion are
// written in one transaction or not at all.
type Recorder struct {
	repo         Repository
	appointments AppointmentStore
	needs        NeedStore
	stock        inventory.Repository
	pool         db.DBTX
	tx           db.Transactor
	log          *zap.Logger
	now          func() time.Time
}

func NewRecorder(
	repo Repository,
	appointments AppointmentStore,
	needs NeedStore,
	stock inventory.Repository,
	pool db.DBTX,
	tx db.Transactor,
	log *zap.Logger,
) *Recorder {
	return &Recorder{
		repo:         repo,
		appointments: appointments,
		needs:        needs,
		stock:        stock,
		pool:         pool,
		tx:           tx,
		log:          log,
		now:          time.Now,
	}
}

func (r *Recorder) RecordDonation(ctx context.Context, actor domain.Actor, in RecordInput) (*Donation, error) {
	hospitalID, err := actor.HospitalID()
	if err != nil {
		return nil, err
	}

	d, err := r.prepare(hospitalID, in)
	if err != nil {
		return nil, err
	}

	var created *Donation
	err = r.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		var err error
		created, err = r.record(ctx, q, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("donation recorded",
		zap.String("donation_id", created.ID.String()),
		zap.String("donor_id", created.DonorID.String()),
		zap.String("hospital_id", created.HospitalID.String()),
		zap.String("status", string(created.Status)),
		zap.Int("units", created.UnitsDonated),
	)
	return created, nil
}

// prepare validates input and normalizes it into the row to insert. It runs
// before any transaction is opened.
func (r *Recorder) prepare(hospitalID uuid.UUID, in RecordInput) (Donation, error) {
	if in.DonorID == uuid.Nil {
		return Donation{}, domain.Invalid("donor_id", "is required")
	}
	if !in.Status.Valid() {
		return Donation{}, domain.Invalid("status", "must be one of successful, deferred, failed")
	}
	if !in.BloodType.Valid() {
		return Donation{}, domain.Invalid("blood_type", "unknown blood type %q", in.BloodType)
	}

	d := Donation{
		ID:            uuid.New(),
		DonorID:       in.DonorID,
		HospitalID:    hospitalID,
		AppointmentID: in.AppointmentID,
		NeedID:        in.NeedID,
		BloodType:     in.BloodType,
		Status:        in.Status,
	}

	if in.Status == StatusSuccessful {
		if in.UnitsDonated == nil || *in.UnitsDonated <= 0 {
			return Donation{}, domain.Invalid("units_donated", "must be a positive integer for a successful donation")
		}
		d.UnitsDonated = *in.UnitsDonated
	} else {
		if in.DeferralReason == nil || strings.TrimSpace(*in.DeferralReason) == "" {
			return Donation{}, domain.Invalid("deferral_reason", "is required when status is %s", in.Status)
		}
		reason := strings.TrimSpace(*in.DeferralReason)
		d.DeferralReason = &reason
	}

	today := truncateDay(r.now())
	d.DonationDate = today
	if in.DonationDate != nil {
		date := truncateDay(*in.DonationDate)
		if date.After(today) {
			return Donation{}, domain.Invalid("donation_date", "must not be in the future")
		}
		d.DonationDate = date
	}

	return d, nil
}

func (r *Recorder) record(ctx context.Context, q db.DBTX, d Donation) (*Donation, error) {
	ok, err := r.repo.DonorExists(ctx, q, d.DonorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDonorNotFound
	}

	var appt *appointment.Appointment
	if d.AppointmentID != nil {
		appt, err = r.lockAppointment(ctx, q, d)
		if err != nil {
			return nil, err
		}
	}

	if d.NeedID != nil {
		n, err := r.needs.LockByID(ctx, q, *d.NeedID)
		if err != nil {
			return nil, err
		}
		if n.HospitalID != d.HospitalID {
			return nil, fmt.Errorf("%w: need belongs to another hospital", domain.ErrForbidden)
		}
	}

	created, err := r.repo.Insert(ctx, q, d)
	if err != nil {
		return nil, err
	}

	if created.Status == StatusSuccessful {
		if err := r.repo.TouchLastDonation(ctx, q, created.DonorID, created.DonationDate); err != nil {
			return nil, err
		}

		_, err := inventory.Adjust(ctx, r.stock, q, created.HospitalID, created.BloodType,
			created.UnitsDonated, inventory.ReasonDonation, &created.ID)
		if err != nil {
			return nil, fmt.Errorf("add donated units to inventory: %w", err)
		}

		if created.NeedID != nil {
			if _, err := r.needs.AddFulfilled(ctx, q, *created.NeedID, created.UnitsDonated); err != nil {
				return nil, fmt.Errorf("fulfil need: %w", err)
			}
		}
	}

	// The appointment has been processed whatever the outcome; only a
	// scheduled one moves to completed.
	if appt != nil && appt.Status == appointment.StatusScheduled {
		_, err := r.appointments.UpdateStatus(ctx, q, appt.ID, appointment.StatusScheduled, appointment.StatusCompleted)
		if err != nil {
			return nil, fmt.Errorf("complete appointment: %w", err)
		}
	}

	return created, nil
}

func (r *Recorder) lockAppointment(ctx context.Context, q db.DBTX, d Donation) (*appointment.Appointment, error) {
	appt, err := r.appointments.LockByID(ctx, q, *d.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.HospitalID != d.HospitalID {
		return nil, fmt.Errorf("%w: appointment belongs to another hospital", domain.ErrForbidden)
	}
	if appt.DonorID != d.DonorID {
		return nil, domain.Invalid("appointment_id", "appointment belongs to a different donor")
	}

	exists, err := r.repo.AppointmentHasDonation(ctx, q, appt.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: appointment %s", ErrDuplicateDonation, appt.ID)
	}
	return appt, nil
}

// ListForActor returns the donor's own donations or the hospital's recorded
// donations, newest first.
func (r *Recorder) ListForActor(ctx context.Context, actor domain.Actor) ([]Donation, error) {
	var (
		list []Donation
		err  error
	)
	switch actor.Role {
	case domain.RoleDonor:
		list, err = r.repo.ListByDonor(ctx, r.pool, actor.UserID)
	case domain.RoleHospitalAdmin:
		list, err = r.repo.ListByHospital(ctx, r.pool, actor.UserID)
	default:
		return nil, fmt.Errorf("%w: role %s has no donations", domain.ErrForbidden, actor.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return list, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

