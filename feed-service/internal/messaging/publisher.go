package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Compile-time check
var _ interfaces.FeedUpdatePublisher = (*rabbitMQFeedPublisher)(nil)

// rabbitMQFeedPublisher публикует снимки постов в fanout exchange.
// Fanout, потому что подписчиков может быть несколько инстансов feed-service:
// каждый держит своих WebSocket клиентов и должен получить каждое обновление.
type rabbitMQFeedPublisher struct {
	channel  *amqp.Channel
	exchange string
}

// NewRabbitMQFeedPublisher creates a publisher for the feed updates fanout exchange.
func NewRabbitMQFeedPublisher(conn *amqp.Connection, exchange string) (interfaces.FeedUpdatePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("feed publisher: не удалось открыть канал: %w", err)
	}

	// Объявляем exchange здесь: параметры должны совпадать с консьюмером
	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("feed publisher: не удалось объявить exchange '%s': %w", exchange, err)
	}
	log.Printf("FeedUpdatePublisher: exchange '%s' успешно объявлен/найден", exchange)

	return &rabbitMQFeedPublisher{channel: ch, exchange: exchange}, nil
}

// PublishPostUpdate публикует полный снимок поста после мутации.
func (p *rabbitMQFeedPublisher) PublishPostUpdate(ctx context.Context, post *models.FeedPost) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}

	body, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка поста %s: %w", post.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Попытка публикации с retry до 3 раз
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			p.exchange, // exchange
			"",         // routing key (fanout игнорирует)
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "feed-service",
			},
		)
		if err == nil {
			return nil
		}
		log.Printf("Ошибка публикации снимка поста %s (attempt %d): %v", post.ID, attempt, err)
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("ошибка публикации снимка поста %s после retries: %w", post.ID, err)
}
