// Package gym собирает HTTP-приложение сервиса абонементов.
package gym

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация Swagger-спецификации.
	_ "github.com/magabrotheeeer/gym-membership/docs"
	"github.com/magabrotheeeer/gym-membership/internal/config"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/attendance"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/enrollment"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/health"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/history"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/member"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/payment"
	"github.com/magabrotheeeer/gym-membership/internal/http/handlers/plan"
	"github.com/magabrotheeeer/gym-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-membership/internal/metrics"
)

// Services — бизнес-сервисы, которые обслуживают маршруты API.
type Services struct {
	Members     member.Service
	Plans       plan.Service
	Enrollments enrollment.Service
	Payments    payment.Service
	Attendance  attendance.Service
	History     history.Service
	DB          health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	members := member.New(logger, svc.Members)
	plans := plan.New(logger, svc.Plans)
	enrollments := enrollment.New(logger, svc.Enrollments)
	payments := payment.New(logger, svc.Payments)
	attendances := attendance.New(logger, svc.Attendance)
	histories := history.New(logger, svc.History)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, svc.DB).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

			r.Post("/members", members.Create)
			r.Get("/members/{id}", members.Get)
			r.Get("/members/{id}/attendance-rate", attendances.Rate)
			r.Get("/members/{id}/history", histories.Get)

			r.Post("/plans", plans.Create)
			r.Get("/plans", plans.List)
			r.Get("/plans/active", plans.ListActive)
			r.Get("/plans/{id}", plans.Get)
			r.Put("/plans/{id}", plans.Update)
			r.Delete("/plans/{id}", plans.Delete)
			r.Post("/plans/{id}/activate", plans.Activate)
			r.Post("/plans/{id}/deactivate", plans.Deactivate)

			r.Post("/enrollments", enrollments.Create)
			r.Get("/enrollments", enrollments.List)
			r.Get("/enrollments/{id}", enrollments.Get)
			r.Put("/enrollments/{id}", enrollments.Update)
			r.Post("/enrollments/{id}/cancel", enrollments.Cancel)
			r.Post("/enrollments/{id}/activate", enrollments.Activate)
			r.Post("/enrollments/{id}/deactivate", enrollments.Deactivate)
			r.Post("/enrollments/{id}/renew", enrollments.Renew)
			r.Get("/enrollments/{id}/total-paid", payments.TotalPaid)

			r.Post("/payments", payments.Register)
			r.Get("/payments", payments.List)
			r.Get("/payments/{id}", payments.Get)
			r.Put("/payments/{id}", payments.Update)
			r.Delete("/payments/{id}", payments.Delete)

			r.Post("/attendance", attendances.Register)
			r.Get("/attendance", attendances.List)
			r.Get("/attendance/{id}", attendances.Get)
			r.Put("/attendance/{id}", attendances.Update)
			r.Delete("/attendance/{id}", attendances.Delete)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
