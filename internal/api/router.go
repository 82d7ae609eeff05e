package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/appointment"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/donation"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
	"github.com/hackgods/blood-donation-coordination/internal/need"
	"github.com/hackgods/blood-donation-coordination/internal/profile"
)

type NeedService interface {
	Create(ctx context.Context, actor domain.Actor, in need.CreateInput) (*need.BloodNeed, error)
	ListActive(ctx context.Context, actor domain.Actor, f need.Filter) ([]need.BloodNeed, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*need.BloodNeed, error)
	ListForHospital(ctx context.Context, actor domain.Actor) ([]need.BloodNeed, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, p need.Patch) (*need.BloodNeed, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

type AppointmentService interface {
	Book(ctx context.Context, actor domain.Actor, in appointment.BookInput) (*appointment.Appointment, error)
	TransitionStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, to appointment.AppointmentStatus) (*appointment.Appointment, error)
	ListForActor(ctx context.Context, actor domain.Actor, limit, offset int) ([]appointment.Appointment, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

type DonationService interface {
	RecordDonation(ctx context.Context, actor domain.Actor, in donation.RecordInput) (*donation.Donation, error)
	ListForActor(ctx context.Context, actor domain.Actor) ([]donation.Donation, error)
}

type InventoryService interface {
	AdjustStock(ctx context.Context, actor domain.Actor, bloodType domain.BloodType, delta int) (int, error)
	List(ctx context.Context, actor domain.Actor) ([]inventory.Entry, error)
	Export(ctx context.Context, actor domain.Actor, w io.Writer) error
}

type ProfileService interface {
	DonorProfile(ctx context.Context, actor domain.Actor) (*domain.Donor, error)
	UpdateDonorProfile(ctx context.Context, actor domain.Actor, p profile.DonorPatch) (*domain.Donor, error)
	HospitalProfile(ctx context.Context, actor domain.Actor) (*domain.Hospital, error)
	UpdateHospitalProfile(ctx context.Context, actor domain.Actor, p profile.HospitalPatch) (*domain.Hospital, error)
	Hospital(ctx context.Context, actor domain.Actor, id uuid.UUID) (*profile.HospitalView, error)
	SearchDonors(ctx context.Context, actor domain.Actor, q profile.SearchQuery) ([]profile.DonorMatch, error)
}

type RouterConfig struct {
	Needs        NeedService
	Appointments AppointmentService
	Donations    DonationService
	Inventory    InventoryService
	Profiles     ProfileService
	Health       *HealthHandler
	JWTSecret    string
	Log          *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(middleware.Recoverer)

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		hospital := RequireRole(domain.RoleHospitalAdmin)
		donor := RequireRole(domain.RoleDonor)
		participant := RequireRole(domain.RoleDonor, domain.RoleHospitalAdmin)

		r.Route("/blood-needs", func(r chi.Router) {
			r.With(hospital).Post("/", createNeedHandler(cfg.Needs))
			r.Get("/", listActiveNeedsHandler(cfg.Needs))
			r.Get("/{id}", getNeedHandler(cfg.Needs))
			r.With(hospital).Put("/{id}", updateNeedHandler(cfg.Needs))
			r.With(hospital).Delete("/{id}", deleteNeedHandler(cfg.Needs))
		})
		r.Route("/hospital", func(r chi.Router) {
			r.Use(hospital)
			r.Get("/blood-needs", listHospitalNeedsHandler(cfg.Needs))
			r.Get("/profile", getHospitalProfileHandler(cfg.Profiles))
			r.Put("/profile", updateHospitalProfileHandler(cfg.Profiles))
		})
		r.Get("/hospitals/{id}", getHospitalHandler(cfg.Profiles))

		r.Route("/donors", func(r chi.Router) {
			r.With(donor).Get("/me", getDonorProfileHandler(cfg.Profiles))
			r.With(donor).Put("/me", updateDonorProfileHandler(cfg.Profiles))
			r.With(hospital).Get("/search", searchDonorsHandler(cfg.Profiles))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.With(donor).Post("/", bookAppointmentHandler(cfg.Appointments))
			r.With(participant).Get("/", listAppointmentsHandler(cfg.Appointments))
			r.With(participant).Put("/{id}/status", updateAppointmentStatusHandler(cfg.Appointments))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		})

		r.Route("/donations", func(r chi.Router) {
			r.With(hospital).Post("/", recordDonationHandler(cfg.Donations))
			r.With(participant).Get("/", listDonationsHandler(cfg.Donations))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(hospital)
			r.Post("/adjust", adjustInventoryHandler(cfg.Inventory))
			r.Get("/", listInventoryHandler(cfg.Inventory))
			r.Get("/export", exportInventoryHandler(cfg.Inventory))
		})
	})

	return r
}
