// Package rabbitmq mirrors journal records to an AMQP exchange, routing key
// per event kind.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	"guildscribe/internal/domain"

	"github.com/rabbitmq/amqp091-go"
)

type Config struct {
	Enabled  bool
	URL      string
	Exchange string
	Durable  bool
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return errors.New("rabbitmq.url is required")
	}
	if c.Exchange == "" {
		return errors.New("rabbitmq.exchange is required")
	}
	return nil
}

type Mirror struct {
	cfg  Config
	conn *amqp091.Connection
	ch   *amqp091.Channel

	publish func(ctx context.Context, routingKey string, body []byte) error
}

func NewMirror(cfg Config) (*Mirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", cfg.Durable, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	m := &Mirror{cfg: cfg, conn: conn, ch: ch}
	m.publish = func(ctx context.Context, routingKey string, body []byte) error {
		return ch.PublishWithContext(ctx, cfg.Exchange, routingKey, false, false, amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
		})
	}
	return m, nil
}

func (m *Mirror) Publish(ctx context.Context, kind domain.EventKind, line []byte) error {
	if err := m.publish(ctx, string(kind), line); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (m *Mirror) Close() error {
	var errs []error
	if m.ch != nil {
		if err := m.ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
