package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/portfolio-api/internal/logging"
)

// Publisher is what handlers depend on.
type Publisher interface {
	PublishContentChanged(ctx context.Context, ev ContentChangedEvent) error
}

// AMQPPublisher dials the broker for each event. Writes to the CV are rare,
// so a long-lived channel would mostly sit idle.
type AMQPPublisher struct {
	url string
	log logging.Logger
}

func NewAMQPPublisher(url string, log logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// PublishContentChanged sends ev as a persistent JSON message on the
// content.changed queue. Errors are logged and returned; callers may ignore them.
func (p *AMQPPublisher) PublishContentChanged(ctx context.Context, ev ContentChangedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn(ctx, "rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn(ctx, "rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(ContentQueueName, true, false, false, false, nil); err != nil {
		p.log.Warn(ctx, "rabbitmq: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ContentQueueName, false, false, pub); err != nil {
		p.log.Warn(ctx, "rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishContentChanged(context.Context, ContentChangedEvent) error { return nil }
