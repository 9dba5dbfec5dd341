// Package rabbitmq содержит обвязку брокера уведомлений: подключение
// с повторами, декларацию очередей, публикацию и потребление сообщений.
package rabbitmq

// QueueConfig очередь и её ключ маршрутизации в exchange уведомлений.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди писем платформы. Ключи
// маршрутизации совпадают с ключами, которыми публикуют сервисы.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.payment", RoutingKey: "payment"},
		{QueueName: "notifications.delivery", RoutingKey: "delivery"},
		{QueueName: "notifications.consultation", RoutingKey: "consultation"},
	}
}
