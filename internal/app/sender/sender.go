// Package sender запускает воркер почтовых уведомлений: читает очереди
// RabbitMQ и отправляет письма через SMTP.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/aprendaplus/platform-backend/internal/config"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/lib/smtp"
	"github.com/aprendaplus/platform-backend/internal/metrics"
	"github.com/aprendaplus/platform-backend/internal/rabbitmq"
	senderservice "github.com/aprendaplus/platform-backend/internal/services/sender"
)

// App воркер почтовых уведомлений.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	svc    *senderservice.SenderService
	logger *slog.Logger
}

// New подключается к брокеру и собирает сервис отправки.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitMaxRetries, cfg.RabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	m := metrics.Registry("platform_sender")
	transport := smtp.NewTransport(cfg, logger)
	svc := senderservice.NewSenderService(transport, m, logger)

	return &App{
		conn:   conn,
		ch:     ch,
		svc:    svc,
		logger: logger,
	}, nil
}

// Run запускает потребителей всех очередей уведомлений и блокируется
// до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	consumers := []struct {
		queue   string
		handler func([]byte) error
	}{
		{"notifications.payment", a.svc.SendPaymentConfirmation},
		{"notifications.delivery", a.svc.SendDeliveryNotice},
		{"notifications.consultation", a.svc.SendConsultationNotice},
	}
	for _, c := range consumers {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, c.queue, c.handler); err != nil {
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", c.queue))
	}

	<-ctx.Done()

	if err := a.ch.Close(); err != nil {
		a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
	}
	return nil
}
