package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentDeleted       = "APPOINTMENT_DELETED"
)

var ErrInvalidStatusTransition = errors.New("invalid status transition")

type Service struct {
	repo Repository
	pool db.DBTX
	tx   db.Transactor
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, pool db.DBTX, tx db.Transactor, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		pool: pool,
		tx:   tx,
		log:  log,
		now:  time.Now,
	}
}

// Book creates a scheduled appointment for the acting donor.
func (s *Service) Book(ctx context.Context, actor domain.Actor, in BookInput) (*Appointment, error) {
	if !actor.IsDonor() {
		return nil, fmt.Errorf("%w: only donors can book appointments", domain.ErrForbidden)
	}
	if in.HospitalID == uuid.Nil {
		return nil, domain.Invalid("hospital_id", "is required")
	}
	if !in.ScheduledAt.After(s.now()) {
		return nil, domain.Invalid("scheduled_at", "must be in the future")
	}

	var created *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		// Validate donor exists
		ok, err := s.repo.DonorExists(ctx, q, actor.UserID)
		if err != nil {
			return fmt.Errorf("load donor: %w", err)
		}
		if !ok {
			return ErrDonorNotFound
		}

		ok, err = s.repo.HospitalExists(ctx, q, in.HospitalID)
		if err != nil {
			return fmt.Errorf("load hospital: %w", err)
		}
		if !ok {
			return ErrHospitalNotFound
		}

		if in.NeedID != nil {
			owner, err := s.repo.NeedHospital(ctx, q, *in.NeedID)
			if err != nil {
				return err
			}
			if owner != in.HospitalID {
				return domain.Invalid("need_id", "need belongs to a different hospital")
			}
		}

		appt, err := s.repo.Create(ctx, q, actor.UserID, in)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(EventAppointmentBooked, created,
		zap.Time("scheduled_at", created.ScheduledAt),
	)
	return created, nil
}

// TransitionStatus moves a scheduled appointment to a new status. Donors may
// cancel or reschedule their own appointments; hospital admins may complete,
// mark no-show or cancel appointments at their hospital.
func (s *Service) TransitionStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	if !to.Valid() {
		return nil, domain.Invalid("status", "unknown status %q", to)
	}

	var (
		updated *Appointment
		from    AppointmentStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		appt, err := s.repo.LockByID(ctx, q, id)
		if err != nil {
			return err
		}

		if !owns(actor, appt) {
			return fmt.Errorf("%w: appointment belongs to someone else", domain.ErrForbidden)
		}
		if !CanTransition(actor.Role, to) {
			return fmt.Errorf("%w: role %s cannot set status %s", domain.ErrForbidden, actor.Role, to)
		}

		if appt.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, appt.Status, to)
		}
		from = appt.Status

		updated, err = s.repo.UpdateStatus(ctx, q, appt.ID, StatusScheduled, to)
		if err != nil {
			return fmt.Errorf("update appointment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(EventAppointmentStatusChanged, updated,
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_role", string(actor.Role)),
	)
	return updated, nil
}

// Delete removes an appointment. The booking donor, the hospital it is booked
// at and super admins may delete it, whatever its status.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	var deleted *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		appt, err := s.repo.LockByID(ctx, q, id)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleSuperAdmin && !owns(actor, appt) {
			return fmt.Errorf("%w: appointment belongs to someone else", domain.ErrForbidden)
		}

		if err := s.repo.Delete(ctx, q, appt.ID); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		deleted = appt
		return nil
	})
	if err != nil {
		return err
	}

	s.logEvent(EventAppointmentDeleted, deleted,
		zap.String("status", string(deleted.Status)),
		zap.String("actor_role", string(actor.Role)),
	)
	return nil
}

// ListForActor lists the donor's own appointments or the hospital's appointments.
func (s *Service) ListForActor(ctx context.Context, actor domain.Actor, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	var (
		appointments []Appointment
		err          error
	)
	switch actor.Role {
	case domain.RoleDonor:
		appointments, err = s.repo.ListByDonor(ctx, s.pool, actor.UserID, limit, offset)
	case domain.RoleHospitalAdmin:
		appointments, err = s.repo.ListByHospital(ctx, s.pool, actor.UserID, limit, offset)
	default:
		return nil, fmt.Errorf("%w: role %s has no appointments", domain.ErrForbidden, actor.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func owns(actor domain.Actor, appt *Appointment) bool {
	switch actor.Role {
	case domain.RoleDonor:
		return appt.DonorID == actor.UserID
	case domain.RoleHospitalAdmin:
		return appt.HospitalID == actor.UserID
	}
	return false
}

func (s *Service) logEvent(eventType string, appt *Appointment, fields ...zap.Field) {
	fields = append(fields,
		zap.String("event", eventType),
		zap.String("appointment_id", appt.ID.String()),
		zap.String("donor_id", appt.DonorID.String()),
		zap.String("hospital_id", appt.HospitalID.String()),
	)
	s.log.Info("appointment event", fields...)
}
