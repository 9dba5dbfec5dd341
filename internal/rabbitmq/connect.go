package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// exchangeName — единственный exchange платформы, direct-маршрутизация
// по ключам очередей уведомлений.
const exchangeName = "notifications"

// maxInflight ограничивает число необработанных сообщений на канал.
const maxInflight = 10

// Connect подключается к брокеру с повторными попытками: при старте
// в compose брокер обычно поднимается позже сервиса.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал и декларирует exchange, очереди и
// привязки. Декларация идемпотентна, publisher и consumer зовут её
// с одним и тем же набором очередей.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(maxInflight, 0, false); err != nil {
		return nil, fmt.Errorf("%s: set qos: %w", op, err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: declare exchange: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("%s: bind queue %s to %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
