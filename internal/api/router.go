package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prepmatch/mentor-booking/internal/booking"
)

type RouterConfig struct {
	Service *booking.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Logger  *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Mentor calendar
	r.Get("/mentors/{id}/slots", mentorSlotsHandler(cfg.Service))
	r.Put("/mentors/{id}/availability", setAvailabilityHandler(cfg.Service))
	r.Post("/mentors/{id}/unavailability", addUnavailabilityHandler(cfg.Service))
	r.Get("/mentors/{id}/sessions", listSessionsHandler(cfg.Service, true))

	// Booking
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Get("/candidates/{id}/sessions", listSessionsHandler(cfg.Service, false))

	// Session lifecycle
	r.Get("/sessions/{id}", getSessionHandler(cfg.Service))
	r.Post("/sessions/{id}/accept", acceptSessionHandler(cfg.Service))
	r.Post("/sessions/{id}/reschedule", rescheduleSessionHandler(cfg.Service))
	r.Get("/sessions/{id}/state", sessionStateHandler(cfg.Service))
	r.Post("/sessions/{id}/evaluation", submitEvaluationHandler(cfg.Service))
	r.Get("/sessions/{id}/evaluation", getEvaluationHandler(cfg.Service))

	return r
}
