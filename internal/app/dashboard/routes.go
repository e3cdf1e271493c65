// Package dashboard собирает HTTP-приложение панели управления мойкой:
// маршруты, middleware и жизненный цикл сервера.
package dashboard

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/carwasher/carwash-dashboard/internal/http/handlers/auth/login"
	"github.com/carwasher/carwash-dashboard/internal/http/handlers/booking/pay"
	"github.com/carwasher/carwash-dashboard/internal/http/handlers/booking/proposal"
	"github.com/carwasher/carwash-dashboard/internal/http/handlers/booking/punch"
	clientarchive "github.com/carwasher/carwash-dashboard/internal/http/handlers/client/archive"
	clientcreate "github.com/carwasher/carwash-dashboard/internal/http/handlers/client/create"
	clientlist "github.com/carwasher/carwash-dashboard/internal/http/handlers/client/list"
	clientread "github.com/carwasher/carwash-dashboard/internal/http/handlers/client/read"
	clientrestore "github.com/carwasher/carwash-dashboard/internal/http/handlers/client/restore"
	clientupdate "github.com/carwasher/carwash-dashboard/internal/http/handlers/client/update"
	"github.com/carwasher/carwash-dashboard/internal/http/handlers/health"
	schedulecancel "github.com/carwasher/carwash-dashboard/internal/http/handlers/schedule/cancel"
	schedulecreate "github.com/carwasher/carwash-dashboard/internal/http/handlers/schedule/create"
	schedulelist "github.com/carwasher/carwash-dashboard/internal/http/handlers/schedule/list"
	schedulerestore "github.com/carwasher/carwash-dashboard/internal/http/handlers/schedule/restore"
	scheduleupdate "github.com/carwasher/carwash-dashboard/internal/http/handlers/schedule/update"
	subadjust "github.com/carwasher/carwash-dashboard/internal/http/handlers/subscription/adjust"
	subcreate "github.com/carwasher/carwash-dashboard/internal/http/handlers/subscription/create"
	sublist "github.com/carwasher/carwash-dashboard/internal/http/handlers/subscription/list"
	subread "github.com/carwasher/carwash-dashboard/internal/http/handlers/subscription/read"
	subupdate "github.com/carwasher/carwash-dashboard/internal/http/handlers/subscription/update"
	"github.com/carwasher/carwash-dashboard/internal/http/middlewarectx"
	authservice "github.com/carwasher/carwash-dashboard/internal/services/auth"
	clientservice "github.com/carwasher/carwash-dashboard/internal/services/client"
	reconcileservice "github.com/carwasher/carwash-dashboard/internal/services/reconcile"
	scheduleservice "github.com/carwasher/carwash-dashboard/internal/services/schedule"
	subservice "github.com/carwasher/carwash-dashboard/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	scheduleService *scheduleservice.ScheduleService,
	reconcileService *reconcileservice.ReconcileService,
	clientService *clientservice.ClientService,
	subscriptionService *subservice.SubscriptionService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/schedule", schedulelist.New(logger, scheduleService).ServeHTTP)
			r.Post("/bookings", schedulecreate.New(logger, scheduleService).ServeHTTP)
			r.Put("/bookings/{id}", scheduleupdate.New(logger, scheduleService).ServeHTTP)
			r.Post("/bookings/{id}/cancel", schedulecancel.New(logger, scheduleService).ServeHTTP)
			r.Post("/bookings/{id}/restore", schedulerestore.New(logger, scheduleService).ServeHTTP)

			r.Get("/bookings/{id}/proposal", proposal.New(logger, reconcileService).ServeHTTP)
			r.Post("/bookings/{id}/punch", punch.New(logger, reconcileService).ServeHTTP)
			r.Post("/bookings/{id}/pay", pay.New(logger, reconcileService).ServeHTTP)

			r.Get("/clients", clientlist.New(logger, clientService).ServeHTTP)
			r.Post("/clients", clientcreate.New(logger, clientService).ServeHTTP)
			r.Get("/clients/{id}", clientread.New(logger, clientService).ServeHTTP)
			r.Put("/clients/{id}", clientupdate.New(logger, clientService).ServeHTTP)
			r.Post("/clients/{id}/archive", clientarchive.New(logger, clientService).ServeHTTP)
			r.Post("/clients/{id}/restore", clientrestore.New(logger, clientService).ServeHTTP)

			r.Get("/subscriptions", sublist.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions", subcreate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", subread.New(logger, subscriptionService).ServeHTTP)
			r.Patch("/subscriptions/{id}", subupdate.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/adjust", subadjust.New(logger, subscriptionService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
