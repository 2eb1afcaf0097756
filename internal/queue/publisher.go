package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Publisher sends events to the events queue. Each publish dials the
// broker, declares the queue and sends one persistent message.
type Publisher struct {
	URL   string
	Queue string
}

// NewPublisher returns a Publisher for url and the default events queue.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, Queue: EventsQueue}
}

// Publish marshals ev and publishes it. Errors are logged and returned so
// the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		log.Warn().Err(err).Str("queue", p.Queue).Msg("rabbitmq: queue declare failed")
		return fmt.Errorf("declare queue %s: %w", p.Queue, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		log.Warn().Err(err).Str("type", ev.Type).Msg("rabbitmq: publish failed")
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
