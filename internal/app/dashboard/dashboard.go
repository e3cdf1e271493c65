package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/carwasher/carwash-dashboard/internal/cache"
	"github.com/carwasher/carwash-dashboard/internal/config"
	"github.com/carwasher/carwash-dashboard/internal/lib/jwt"
	"github.com/carwasher/carwash-dashboard/internal/lib/rabbitmq"
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
	authservice "github.com/carwasher/carwash-dashboard/internal/services/auth"
	clientservice "github.com/carwasher/carwash-dashboard/internal/services/client"
	reconcileservice "github.com/carwasher/carwash-dashboard/internal/services/reconcile"
	scheduleservice "github.com/carwasher/carwash-dashboard/internal/services/schedule"
	subservice "github.com/carwasher/carwash-dashboard/internal/services/subscription"
	"github.com/carwasher/carwash-dashboard/internal/storage/repository"
)

// App держит HTTP-сервер и внешние соединения панели управления.
type App struct {
	server *http.Server
	logger *slog.Logger
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение: клиент Record Store, кеш Redis, брокер
// уведомлений, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	storeClient := recordstore.New(cfg.RecordStore.BaseURL, cfg.RecordStore.APIKey,
		cfg.RecordStore.Timeout, cfg.RecordStore.GetRetries)
	repo := repository.New(storeClient, logger)

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewChannelPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	authService := authservice.NewAuthService(repo, jwtMaker)
	scheduleService := scheduleservice.NewScheduleService(repo, cacheRedis, logger)
	reconcileService := reconcileservice.NewReconcileService(repo, publisher, cacheRedis,
		logger, cfg.Business.UnitPrice)
	clientService := clientservice.NewClientService(repo, logger)
	subscriptionService := subservice.NewSubscriptionService(repo, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, scheduleService, reconcileService,
		clientService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и корректно гасит его по отмене контекста.
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
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	if err := a.cache.Db.Close(); err != nil {
		a.logger.Error("failed to close redis client", slog.Any("err", err))
	}
}
