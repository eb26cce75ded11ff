package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credentials_service/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const eventsBindingKey = "credential.#"

type RabbitMQClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func New(urlForConn string, exchange string) (*RabbitMQClient, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange, amqp.ExchangeTopic, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// * Publish отправляет событие жизненного цикла credential, routing key = тип события
func (r *RabbitMQClient) Publish(ctx context.Context, event models.Event) error {
	const op = "rabbitmq.Publish"

	publishing, err := newPublishing(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.channel.PublishWithContext(
		ctx,
		r.exchange,
		event.Type,
		false,
		false,
		publishing,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * StartReading объявляет очередь, привязывает ее к exchange по шаблону
// "credential.#" и передает каждое событие в handler до отмены ctx.
// Сообщение подтверждается, только если handler вернул nil.
func (r *RabbitMQClient) StartReading(ctx context.Context, queueName string, handler func(models.Event) error) error {
	const op = "rabbitmq.StartReading"

	q, err := r.channel.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.channel.QueueBind(q.Name, eventsBindingKey, r.exchange, false, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	deliveries, err := r.channel.ConsumeWithContext(
		ctx, q.Name, "", false, false, false, false, nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}

			handleDelivery(d, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(d amqp.Delivery, handler func(models.Event) error) {
	settle(d, d.Body, handler)
}

// settle: битые сообщения отбрасываются, ошибки handler возвращают сообщение в очередь.
func settle(ack acknowledger, body []byte, handler func(models.Event) error) {
	event, err := decodeEvent(body)
	if err != nil {
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(event); err != nil {
		_ = ack.Nack(false, true)
		return
	}

	_ = ack.Ack(false)
}

func decodeEvent(body []byte) (models.Event, error) {
	var event models.Event

	if err := json.Unmarshal(body, &event); err != nil {
		return models.Event{}, err
	}
	if event.Type == "" {
		return models.Event{}, errors.New("event type is empty")
	}

	return event, nil
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	_ = r.conn.Close()
}

func newPublishing(event models.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}, nil
}
