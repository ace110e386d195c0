// Package kafka mirrors journal records to a Kafka topic for downstream
// analysis pipelines. The file journal stays the source of truth; the mirror
// carries serialized lines verbatim.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"guildscribe/internal/domain"

	"github.com/twmb/franz-go/pkg/kgo"
)

type Config struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
	Timeout  time.Duration
	TLS      TLSConfig
}

type TLSConfig struct {
	Enabled            bool
	InsecureSkipVerify bool
}

func (c *Config) withDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	if c.Topic == "" {
		return errors.New("kafka.topic is required")
	}
	return nil
}

type Mirror struct {
	cfg    Config
	client *kgo.Client

	produce func(ctx context.Context, rec *kgo.Record) error
}

func NewMirror(cfg Config, opts ...kgo.Opt) (*Mirror, error) {
	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProduceRequestTimeout(cfg.Timeout),
	}
	if cfg.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.TLS.Enabled {
		kopts = append(kopts, kgo.DialTLSConfig(&tls.Config{InsecureSkipVerify: cfg.TLS.InsecureSkipVerify}))
	}
	kopts = append(kopts, opts...)

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("new kafka client: %w", err)
	}

	m := &Mirror{cfg: cfg, client: cl}
	m.produce = func(ctx context.Context, rec *kgo.Record) error {
		return cl.ProduceSync(ctx, rec).FirstErr()
	}
	return m, nil
}

// Publish sends one serialized journal line, keyed by event kind so records
// of one kind stay in partition order.
func (m *Mirror) Publish(ctx context.Context, kind domain.EventKind, line []byte) error {
	rec := &kgo.Record{
		Topic: m.cfg.Topic,
		Key:   []byte(kind),
		Value: append([]byte(nil), line...),
	}
	if err := m.produce(ctx, rec); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}

func (m *Mirror) Close() {
	if m.client != nil {
		m.client.Close()
	}
}
