// Package sender собирает сервис отправки WhatsApp-уведомлений:
// потребители очередей, шлюз Green API и доступ к профилям клиентов.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/carwasher/carwash-dashboard/internal/config"
	"github.com/carwasher/carwash-dashboard/internal/greenapi"
	"github.com/carwasher/carwash-dashboard/internal/lib/rabbitmq"
	"github.com/carwasher/carwash-dashboard/internal/recordstore"
	senderservice "github.com/carwasher/carwash-dashboard/internal/services/sender"
	"github.com/carwasher/carwash-dashboard/internal/storage/repository"
)

// App держит соединение с брокером и сервис отправки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New собирает приложение отправителя уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	storeClient := recordstore.New(cfg.RecordStore.BaseURL, cfg.RecordStore.APIKey,
		cfg.RecordStore.Timeout, cfg.RecordStore.GetRetries)
	repo := repository.New(storeClient, logger)

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	messenger := greenapi.NewClient(cfg.GreenAPI.BaseURL, cfg.GreenAPI.Instance,
		cfg.GreenAPI.Token, cfg.GreenAPI.Timeout)
	senderService := senderservice.NewSenderService(messenger, repo, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run подписывается на очереди уведомлений и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.subscription", func(body []byte) error {
		return a.senderService.SendBalanceUpdate(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start notifications.subscription consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.reminder", func(body []byte) error {
		return a.senderService.SendReminder(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start notifications.reminder consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
