package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	t.Setenv("GUILDSCRIBE_MIRROR_KAFKA_ENABLED", "true")

	path := filepath.Join(t.TempDir(), "guildscribe.yaml")
	content := []byte(`
discord:
  guild_id: 123456789
journal:
  path: /var/lib/guildscribe/data.jsonl
capture:
  excluded_authors: [678344927997853742]
mirror:
  kafka:
    enabled: false
    brokers: ["127.0.0.1:9092"]
    topic: journal
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if !cfg.Mirror.Kafka.Enabled {
		t.Fatalf("expected env override to enable the kafka mirror")
	}
	if cfg.Discord.GuildID != 123456789 {
		t.Fatalf("guild id = %d", cfg.Discord.GuildID)
	}
	if cfg.Journal.Path != "/var/lib/guildscribe/data.jsonl" {
		t.Fatalf("journal path = %q", cfg.Journal.Path)
	}
	if len(cfg.Capture.ExcludedAuthors) != 1 || cfg.Capture.ExcludedAuthors[0] != 678344927997853742 {
		t.Fatalf("excluded authors = %v", cfg.Capture.ExcludedAuthors)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guildscribe.yaml")
	content := []byte(`
discord:
  guild_id: 42
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if cfg.Journal.Path != "data.jsonl" {
		t.Fatalf("default journal path = %q", cfg.Journal.Path)
	}
	if cfg.Mirror.Kafka.Topic != "guildscribe.journal" {
		t.Fatalf("default kafka topic = %q", cfg.Mirror.Kafka.Topic)
	}
}

func TestValidateRequiresGuildID(t *testing.T) {
	cfg := Config{Journal: JournalConfig{Path: "data.jsonl"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected guild_id validation error")
	}
}

func TestValidateEnabledKafkaMirrorNeedsBrokers(t *testing.T) {
	cfg := Config{
		Discord: DiscordConfig{GuildID: 1},
		Journal: JournalConfig{Path: "data.jsonl"},
		Mirror:  MirrorConfig{Kafka: KafkaMirrorConfig{Enabled: true, Topic: "journal"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected kafka brokers validation error")
	}
}

func TestValidateEnabledRabbitMQMirrorNeedsURL(t *testing.T) {
	cfg := Config{
		Discord: DiscordConfig{GuildID: 1},
		Journal: JournalConfig{Path: "data.jsonl"},
		Mirror:  MirrorConfig{RabbitMQ: RabbitMQMirrorConfig{Enabled: true, Exchange: "journal"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected rabbitmq url validation error")
	}
}
