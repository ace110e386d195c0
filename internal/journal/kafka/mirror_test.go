package kafka

import (
	"context"
	"errors"
	"testing"

	"guildscribe/internal/domain"

	"github.com/twmb/franz-go/pkg/kgo"
)

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true, Brokers: []string{"127.0.0.1:9092"}, Topic: "journal"}
	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Timeout <= 0 {
		t.Fatalf("expected default timeout")
	}
}

func TestConfigValidateMissingBrokers(t *testing.T) {
	cfg := Config{Enabled: true, Topic: "journal"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected brokers validation error")
	}
}

func TestConfigValidateMissingTopic(t *testing.T) {
	cfg := Config{Enabled: true, Brokers: []string{"127.0.0.1:9092"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected topic validation error")
	}
}

func TestPublishKeysByEventKind(t *testing.T) {
	var got *kgo.Record
	m := &Mirror{cfg: Config{Topic: "journal"}}
	m.produce = func(_ context.Context, rec *kgo.Record) error {
		got = rec
		return nil
	}

	line := []byte(`{"timestamp":1.5,"event":"member_join","data":{"member_id":1,"current_member_count":2}}` + "\n")
	if err := m.Publish(context.Background(), domain.KindMemberJoin, line); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got == nil {
		t.Fatalf("produce was not called")
	}
	if got.Topic != "journal" {
		t.Fatalf("topic = %q", got.Topic)
	}
	if string(got.Key) != "member_join" {
		t.Fatalf("key = %q", got.Key)
	}
	if string(got.Value) != string(line) {
		t.Fatalf("value mismatch: %q", got.Value)
	}
}

func TestPublishWrapsProduceError(t *testing.T) {
	m := &Mirror{cfg: Config{Topic: "journal"}}
	m.produce = func(context.Context, *kgo.Record) error {
		return errors.New("broker unreachable")
	}
	if err := m.Publish(context.Background(), domain.KindMessage, []byte("{}\n")); err == nil {
		t.Fatalf("expected produce error to surface")
	}
}
