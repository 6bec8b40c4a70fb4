package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"github.com/yukikurage/agency-management-api/internal/logger"
)

const ExchangeName = "events"

// amqpChannel is the subset of *amqp091.Channel used for publishing.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	log     *logger.Logger
	conn    *amqp091.Connection
	channel amqpChannel
	mu      sync.Mutex
}

func NewAMQPPublisher(url string, log *logger.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPPublisher{
		log:     log.With("service", "AMQPPublisher"),
		conn:    conn,
		channel: ch,
	}, nil
}

// Publish routes the event by its type on the topic exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// amqp091 channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, ExchangeName, evt.Type, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Type:         evt.Type,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	})
}

func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
