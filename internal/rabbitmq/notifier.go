package rabbitmq

import "github.com/streadway/amqp"

// Notifier публикует уведомления в обменник notifications. Реализует
// интерфейс Publisher сервисов.
type Notifier struct {
	ch *amqp.Channel
}

// NewNotifier создает новый экземпляр Notifier.
func NewNotifier(ch *amqp.Channel) *Notifier {
	return &Notifier{ch: ch}
}

// Publish отправляет сообщение с заданным ключом маршрутизации.
func (n *Notifier) Publish(routingKey string, message any) error {
	return PublishMessage(n.ch, exchangeName, routingKey, message)
}
