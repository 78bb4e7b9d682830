package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

// ShiftService is the admin-facing shift surface consumed by the handlers.
type ShiftService interface {
	CreateShift(ctx context.Context, actor account.Actor, doctorID uuid.UUID, date time.Time, timeSlot string) (*shift.WorkShift, error)
	GetShift(ctx context.Context, id uuid.UUID) (*shift.WorkShift, error)
	ListShifts(ctx context.Context, f shift.Filter) ([]shift.WorkShift, error)
	UpdateShiftTiming(ctx context.Context, actor account.Actor, id uuid.UUID, date *time.Time, timeSlot *string) (*shift.WorkShift, error)
	DeleteShift(ctx context.Context, actor account.Actor, id uuid.UUID) error
}

// BookingService is the reservation coordinator surface consumed by the handlers.
type BookingService interface {
	Book(ctx context.Context, shiftID uuid.UUID, notes *string, actor account.Actor) (*appointment.Appointment, error)
	AdvanceStatus(ctx context.Context, appointmentID uuid.UUID, newStatus appointment.Status, actor account.Actor) (*appointment.Appointment, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, actor account.Actor) error
	GetAppointment(ctx context.Context, id uuid.UUID, actor account.Actor) (*appointment.Appointment, error)
	ListForActor(ctx context.Context, actor account.Actor, f appointment.Filter) ([]appointment.Appointment, error)
}

type RouterConfig struct {
	Shifts    ShiftService
	Bookings  BookingService
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	JWTSecret string
	Env       string
	Version   string
	Logger    zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints, unauthenticated
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		anyRole := RequireRole(account.RoleAdmin, account.RoleDoctor, account.RolePatient)

		// Work shift endpoints
		r.With(RequireRole(account.RoleAdmin)).Post("/workshifts", createShiftHandler(cfg.Shifts))
		r.With(anyRole).Get("/workshifts", listShiftsHandler(cfg.Shifts))
		r.With(anyRole).Get("/workshifts/{id}", getShiftHandler(cfg.Shifts))
		r.With(RequireRole(account.RoleAdmin)).Put("/workshifts/{id}", updateShiftHandler(cfg.Shifts))
		r.With(RequireRole(account.RoleAdmin)).Delete("/workshifts/{id}", deleteShiftHandler(cfg.Shifts))

		// Appointment endpoints
		r.With(RequireRole(account.RolePatient)).Post("/appointments", createAppointmentHandler(cfg.Bookings))
		r.With(anyRole).Get("/appointments", listAppointmentsHandler(cfg.Bookings))
		r.With(anyRole).Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
		r.With(RequireRole(account.RoleDoctor)).Patch("/appointments/{id}", updateAppointmentStatusHandler(cfg.Bookings))
		r.With(RequireRole(account.RolePatient)).Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Bookings))
	})

	return r
}
