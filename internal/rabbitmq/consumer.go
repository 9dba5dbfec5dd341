package rabbitmq

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// ConsumerMessage подписывается на очередь и обрабатывает сообщения
// пулом из maxInflight горутин. Ошибка обработчика возвращает сообщение
// в очередь, успех подтверждается. Остановка — по отмене контекста или
// закрытию канала.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: consume %s: %w", op, queueName, err)
	}

	workers := make(chan struct{}, maxInflight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				workers <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-workers }()
					if err := handler(d.Body); err != nil {
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Printf("nack failed for %s: %v", queueName, nackErr)
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Printf("ack failed for %s: %v", queueName, ackErr)
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
