package messaging

import (
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broadcaster доставляет сообщение всем подключенным подписчикам ленты.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Consumer получает снимки постов из fanout exchange и передает их в хаб соединений.
type Consumer struct {
	conn        *amqp.Connection
	broadcaster Broadcaster
	exchange    string
	stopChannel chan struct{}
}

// NewConsumer создает нового консьюмера обновлений ленты.
func NewConsumer(conn *amqp.Connection, broadcaster Broadcaster, exchange string) (*Consumer, error) {
	return &Consumer{
		conn:        conn,
		broadcaster: broadcaster,
		exchange:    exchange,
		stopChannel: make(chan struct{}),
	}, nil
}

// StartConsuming начинает прослушивание обновлений ленты.
// Функция блокирующая, запускать в отдельной горутине.
func (c *Consumer) StartConsuming() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	// Параметры exchange должны совпадать с паблишером
	err = ch.ExchangeDeclare(
		c.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить exchange '%s': %w", c.exchange, err)
	}

	// Эксклюзивная безымянная очередь: у каждого инстанса своя, умирает вместе с ним
	q, err := ch.QueueDeclare(
		"",    // name (сгенерированное сервером)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь для exchange '%s': %w", c.exchange, err)
	}

	err = ch.QueueBind(
		q.Name,     // queue name
		"",         // routing key (fanout игнорирует)
		c.exchange, // exchange
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось привязать очередь '%s' к exchange '%s': %w", q.Name, c.exchange, err)
	}
	log.Printf("Очередь '%s' привязана к exchange '%s'", q.Name, c.exchange)

	msgs, err := ch.Consume(
		q.Name,
		"feed-service-consumer", // consumer tag
		true,                    // auto-ack: потеря одного снимка не критична, придет следующий
		false,                   // exclusive
		false,                   // no-local
		false,                   // no-wait
		nil,                     // args
	)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}

	log.Printf("Консьюмер запущен, ожидание обновлений ленты из exchange '%s'...", c.exchange)

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				log.Println("Канал сообщений RabbitMQ закрыт")
				return nil
			}
			c.broadcaster.Broadcast(d.Body)

		case <-c.stopChannel:
			log.Println("Получен сигнал остановки консьюмера RabbitMQ")
			return nil
		}
	}
}

// Stop останавливает консьюмер.
func (c *Consumer) Stop() {
	log.Println("Остановка консьюмера RabbitMQ...")
	close(c.stopChannel)
}
