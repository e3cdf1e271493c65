// Package scheduler собирает планировщик напоминаний: периодический
// поиск завтрашних визитов и публикация заданий в очередь уведомлений.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/carwasher/carwash-dashboard/internal/config"
	"github.com/carwasher/carwash-dashboard/internal/lib/rabbitmq"
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
	schedulerservice "github.com/carwasher/carwash-dashboard/internal/services/scheduler"
	"github.com/carwasher/carwash-dashboard/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	interval         time.Duration
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	storeClient := recordstore.New(cfg.RecordStore.BaseURL, cfg.RecordStore.APIKey,
		cfg.RecordStore.Timeout, cfg.RecordStore.GetRetries)
	repo := repository.New(storeClient, logger)

	publisher := rabbitmq.NewChannelPublisher(ch)
	schedulerService := schedulerservice.NewSchedulerService(repo, publisher, logger)

	return &App{
		schedulerService: schedulerService,
		interval:         cfg.Scheduler.Interval,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает планировщик.
func (a *App) Run(ctx context.Context) error {
	go a.schedulerService.Run(ctx, a.interval)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)

	return nil
}
