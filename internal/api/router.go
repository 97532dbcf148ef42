package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-backend/internal/appointment"
	"github.com/medagenda/clinic-backend/internal/auth"
	"github.com/medagenda/clinic-backend/internal/clinic"
	"github.com/medagenda/clinic-backend/internal/schedule"
)

type RouterConfig struct {
	Clinic       *clinic.Service
	Schedule     *schedule.Service
	Appointments *appointment.Service
	Gate         *auth.Gate
	Schemas      *Schemas
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	Log          zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	gate := cfg.Gate
	anyRole := []auth.Role{auth.RolePatient, auth.RoleMedic, auth.RoleAdmin}

	r.Post("/auth/login", loginHandler(cfg.Clinic, cfg.Schemas))
	r.With(gate.Require(anyRole...)).Post("/auth/logout", logoutHandler(cfg.Clinic))

	// patients: registration is public, everything else is self-scoped with
	// the admin bypass
	r.Post("/patients", registerPatientHandler(cfg.Clinic, cfg.Schemas))
	r.Route("/patients/{rut}", func(r chi.Router) {
		r.With(gate.RequireSelf("rut", auth.RolePatient)).
			Get("/", getPatientHandler(cfg.Clinic))
		r.With(gate.RequireSelf("rut", auth.RolePatient)).
			Patch("/", updatePatientHandler(cfg.Clinic, cfg.Schemas))
		r.With(gate.RequireSelf("rut", auth.RolePatient)).
			Delete("/", deletePatientHandler(cfg.Clinic))
		r.With(gate.RequireSelf("rut", auth.RolePatient)).
			Get("/appointments", listPatientAppointmentsHandler(cfg.Appointments))
	})

	// medics: the directory is public, schedule management is self-scoped
	r.Get("/medics", listMedicsHandler(cfg.Clinic))
	r.With(gate.Require(auth.RoleAdmin)).Post("/medics", createMedicHandler(cfg.Clinic, cfg.Schemas))
	r.Route("/medics/{rut}", func(r chi.Router) {
		r.Get("/", getMedicHandler(cfg.Clinic))
		r.With(gate.RequireSelf("rut", auth.RoleMedic)).
			Patch("/", updateMedicHandler(cfg.Clinic, cfg.Schemas))
		r.With(gate.RequireSelf("rut", auth.RoleMedic)).
			Get("/appointments", listMedicAppointmentsHandler(cfg.Appointments))

		r.With(gate.Require(anyRole...)).
			Get("/slots", listSlotsHandler(cfg.Schedule))
		r.With(gate.RequireSelf("rut", auth.RoleMedic)).
			Post("/slots", createSlotHandler(cfg.Schedule, cfg.Schemas))
		r.With(gate.RequireSelf("rut", auth.RoleMedic)).
			Patch("/slots/{id}", updateSlotHandler(cfg.Schedule, cfg.Schemas))
		r.With(gate.RequireSelf("rut", auth.RoleMedic)).
			Delete("/slots/{id}", deleteSlotHandler(cfg.Schedule))
	})

	// appointments: the service decides ownership, the gate only
	// authenticates
	r.Route("/appointments", func(r chi.Router) {
		r.Use(gate.Require(anyRole...))
		r.Post("/", bookAppointmentHandler(cfg.Appointments, cfg.Schemas))
		r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Appointments, cfg.Schemas))
		r.Delete("/{id}", cancelAppointmentHandler(cfg.Appointments))
	})

	return r
}
