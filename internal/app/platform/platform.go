// Package platform собирает и запускает основной HTTP-сервис платформы.
package platform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/aprendaplus/platform-backend/internal/cache"
	"github.com/aprendaplus/platform-backend/internal/config"
	"github.com/aprendaplus/platform-backend/internal/gateway"
	"github.com/aprendaplus/platform-backend/internal/lib/jwt"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/metrics"
	"github.com/aprendaplus/platform-backend/internal/migrations"
	"github.com/aprendaplus/platform-backend/internal/printify"
	"github.com/aprendaplus/platform-backend/internal/rabbitmq"
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

// App основной HTTP-сервис платформы.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	rabbitCh *amqp.Channel
}

// New собирает приложение: хранилище, миграции, кеш, брокер и маршруты.
// Redis и RabbitMQ необязательны: без них сервис работает в урезанном
// режиме (без кеша, лимитов и почтовых уведомлений).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	var cacheRedis *cache.Cache
	if cfg.AddressRedis != "" {
		cacheRedis, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and rate limits", sl.Err(err))
			cacheRedis = nil
		}
	} else {
		logger.Warn("redis address is empty, running without cache and rate limits")
	}

	var rabbitCh *amqp.Channel
	var publisher *rabbitmq.Notifier
	if cfg.RabbitURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
		if err != nil {
			logger.Warn("rabbitmq unavailable, notifications disabled", sl.Err(err))
		} else {
			rabbitCh, err = rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
			if err != nil {
				logger.Warn("failed to setup rabbitmq channel, notifications disabled", sl.Err(err))
			} else {
				publisher = rabbitmq.NewNotifier(rabbitCh)
			}
		}
	} else {
		logger.Warn("rabbit url is empty, notifications disabled")
	}

	m := metrics.Registry("platform")
	limiter := ratelimit.New(cacheRedis, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.UserTokenTTL, cfg.AdminTTL)
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, m)
	printifyClient := printify.NewClient(cfg.PrintifyAPIKey, cfg.PrintifyShopID)

	var paymentPublisher paymentservice.Publisher
	var fulfillmentPublisher fulfillmentservice.Publisher
	var consultationPublisher consultationservice.Publisher
	if publisher != nil {
		paymentPublisher = publisher
		fulfillmentPublisher = publisher
		consultationPublisher = publisher
	}

	var catalogCache catalogservice.Cache
	var fulfillmentCache fulfillmentservice.Cache
	if cacheRedis != nil {
		catalogCache = cacheRedis
		fulfillmentCache = cacheRedis
	}

	deps := &Services{
		Auth:         authservice.NewAuthService(db, jwtMaker, logger),
		Payment:      paymentservice.New(db, gatewayClient, paymentPublisher, logger),
		Subscription: subscriptionservice.New(db, gatewayClient, logger),
		Fulfillment:  fulfillmentservice.New(db, fulfillmentPublisher, fulfillmentCache, printifyClient, logger),
		Catalog:      catalogservice.New(db, catalogCache, logger),
		Consultation: consultationservice.New(db, consultationPublisher, logger),
		AdminLog:     adminlogservice.New(db, logger),
		Limiter:      limiter,
		Metrics:      m,
		Storage:      db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, deps)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		rabbitCh: rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.rabbitCh != nil {
			_ = a.rabbitCh.Close()
		}
		a.db.DB.Close()
		return err
	}
}
