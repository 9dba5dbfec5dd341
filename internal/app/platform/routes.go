// Package platform предоставляет маршруты для основного приложения.
package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aprendaplus/platform-backend/internal/config"
	adminconsultation "github.com/aprendaplus/platform-backend/internal/http/handlers/admin/consultationupdate"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/admin/flushlimits"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/auth/login"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/auth/register"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/catalog/prices"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/catalog/proposalcreate"
	certverify "github.com/aprendaplus/platform-backend/internal/http/handlers/certificates/verify"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/consultation/consultationcreate"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/fulfillment/tracking"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/health"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/payment/paymentcreate"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/payment/paymentlist"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/payment/paymentwebhook"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/subscription/subscriptioncancel"
	"github.com/aprendaplus/platform-backend/internal/http/handlers/subscription/subscriptioncreate"
	printifywebhook "github.com/aprendaplus/platform-backend/internal/http/handlers/webhooks/printify"
	prodigiwebhook "github.com/aprendaplus/platform-backend/internal/http/handlers/webhooks/prodigi"
	"github.com/aprendaplus/platform-backend/internal/http/middlewarectx"
	"github.com/aprendaplus/platform-backend/internal/metrics"
	"github.com/aprendaplus/platform-backend/internal/ratelimit"
	adminlogservice "github.com/aprendaplus/platform-backend/internal/services/adminlog"
	authservice "github.com/aprendaplus/platform-backend/internal/services/auth"
	catalogservice "github.com/aprendaplus/platform-backend/internal/services/catalog"
	consultationservice "github.com/aprendaplus/platform-backend/internal/services/consultation"
	fulfillmentservice "github.com/aprendaplus/platform-backend/internal/services/fulfillment"
	paymentservice "github.com/aprendaplus/platform-backend/internal/services/payment"
	subscriptionservice "github.com/aprendaplus/platform-backend/internal/services/subscription"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// routeLimits — политики лимитера на маршрут, ключ ratelimit:<route>:<ip>.
// Вебхуки партнёров не лимитируются: ретраи шлюза важнее защиты от шума.
var routeLimits = map[string]struct {
	limit  int
	window time.Duration
}{
	"register":     {10, time.Hour},
	"login":        {20, time.Hour},
	"payments":     {30, time.Hour},
	"consultation": {5, time.Hour},
}

// Services собирает зависимости маршрутов.
type Services struct {
	Auth         *authservice.AuthService
	Payment      *paymentservice.PaymentService
	Subscription *subscriptionservice.SubscriptionService
	Fulfillment  *fulfillmentservice.FulfillmentService
	Catalog      *catalogservice.CatalogService
	Consultation *consultationservice.ConsultationService
	AdminLog     *adminlogservice.AdminLogService
	Limiter      *ratelimit.Limiter
	Metrics      *metrics.Metrics
	Storage      *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.RateLimitMiddleware(logger),
	)

	routeLimit := func(route string) func(http.Handler) http.Handler {
		policy := routeLimits[route]
		return middlewarectx.RouteLimitMiddleware(s.Limiter, s.Metrics, logger, route, policy.limit, policy.window)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.With(routeLimit("register")).
			Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.With(routeLimit("login")).
			Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)

		r.Get("/prices", prices.New(logger, s.Catalog).ServeHTTP)
		r.Post("/proposals", proposalcreate.New(logger, s.Catalog).ServeHTTP)
		r.Get("/certificates/verify/{code}", certverify.New(logger, s.Catalog).ServeHTTP)
		r.With(routeLimit("consultation")).
			Post("/consultations", consultationcreate.New(logger, s.Consultation).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.With(routeLimit("payments")).
				Post("/payments", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Get("/payments/list", paymentlist.New(logger, s.Payment).ServeHTTP)
			r.Post("/subscriptions", subscriptioncreate.New(logger, s.Subscription).ServeHTTP)
			r.Delete("/subscriptions/{id}", subscriptioncancel.New(logger, s.Subscription).ServeHTTP)
			r.Get("/orders/{id}/tracking", tracking.New(logger, s.Fulfillment).ServeHTTP)
		})

		// Административная группа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.AdminOnlyMiddleware(logger))
			r.Patch("/admin/consultations/{id}", adminconsultation.New(logger, s.Consultation, s.AdminLog).ServeHTTP)
		})

		// Сброс лимитов защищён отдельным секретом, без JWT
		r.Post("/admin/flush-ratelimits", flushlimits.New(logger, s.Limiter, s.AdminLog, cfg.FlushSecret).ServeHTTP)

		// Вебхуки: без аутентификации и без лимитера, проверка токена
		// и подписей внутри обработчиков
		r.Post("/payments/webhook",
			paymentwebhook.New(logger, s.Payment, cfg.WebhookToken, s.Metrics).ServeHTTP)
		r.Post("/webhooks/printify",
			printifywebhook.New(logger, s.Fulfillment, cfg.PrintifySecret, s.Metrics).ServeHTTP)
		r.Post("/webhooks/prodigi",
			prodigiwebhook.New(logger, s.Fulfillment, cfg.ProdigiSecret, s.Metrics).ServeHTTP)
	})

	r.Get("/health", health.New(logger, func() error {
		return repository.CheckDatabaseReady(s.Storage)
	}).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
