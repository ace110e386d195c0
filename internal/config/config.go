package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Journal JournalConfig `mapstructure:"journal"`
	Capture CaptureConfig `mapstructure:"capture"`
	Mirror  MirrorConfig  `mapstructure:"mirror"`
}

type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	GuildID int64  `mapstructure:"guild_id"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

type CaptureConfig struct {
	ExcludedAuthors []int64 `mapstructure:"excluded_authors"`
}

type MirrorConfig struct {
	Kafka    KafkaMirrorConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQMirrorConfig `mapstructure:"rabbitmq"`
}

type KafkaMirrorConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

type RabbitMQMirrorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Durable  bool   `mapstructure:"durable"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("guildscribe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("journal.path", "data.jsonl")
	v.SetDefault("mirror.kafka.topic", "guildscribe.journal")
	v.SetDefault("mirror.rabbitmq.exchange", "guildscribe.journal")
	v.SetDefault("mirror.rabbitmq.durable", true)
}

func (c Config) Validate() error {
	if c.Discord.GuildID == 0 {
		return fmt.Errorf("discord.guild_id is required")
	}
	if c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required")
	}
	if c.Mirror.Kafka.Enabled && len(c.Mirror.Kafka.Brokers) == 0 {
		return fmt.Errorf("mirror.kafka.brokers is required when the kafka mirror is enabled")
	}
	if c.Mirror.RabbitMQ.Enabled && c.Mirror.RabbitMQ.URL == "" {
		return fmt.Errorf("mirror.rabbitmq.url is required when the rabbitmq mirror is enabled")
	}
	return nil
}
