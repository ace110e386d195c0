// Command guildscribed connects to the Discord gateway and journals
// server-lifecycle events for later offline analysis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"guildscribe/internal/config"
	"guildscribe/internal/dispatch"
	"guildscribe/internal/gateway"
	"guildscribe/internal/journal"
	"guildscribe/internal/journal/kafka"
	"guildscribe/internal/journal/rabbitmq"
	"guildscribe/internal/normalize"

	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", "guildscribe.yaml", "path to config file")
	outputLog := flag.String("output-log", "", "override the journal file path")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*cfgPath, *outputLog, log); err != nil {
		log.Error("guildscribed failed", "error", err)
		os.Exit(1)
	}
}

func run(cfgPath, outputLog string, log *slog.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outputLog != "" {
		cfg.Journal.Path = outputLog
	}

	token := cfg.Discord.Token
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("discord token is required (discord.token or DISCORD_TOKEN)")
	}
	log.Info("discord token loaded", "masked", strings.Repeat("#", len(token)))

	var opts []journal.Option
	var closers []func()
	defer func() {
		for _, closeMirror := range closers {
			closeMirror()
		}
	}()
	if cfg.Mirror.Kafka.Enabled {
		m, err := kafka.NewMirror(kafka.Config{
			Enabled:  true,
			Brokers:  cfg.Mirror.Kafka.Brokers,
			Topic:    cfg.Mirror.Kafka.Topic,
			ClientID: cfg.Mirror.Kafka.ClientID,
		})
		if err != nil {
			return fmt.Errorf("kafka mirror: %w", err)
		}
		closers = append(closers, m.Close)
		opts = append(opts, journal.WithMirror(m))
	}
	if cfg.Mirror.RabbitMQ.Enabled {
		m, err := rabbitmq.NewMirror(rabbitmq.Config{
			Enabled:  true,
			URL:      cfg.Mirror.RabbitMQ.URL,
			Exchange: cfg.Mirror.RabbitMQ.Exchange,
			Durable:  cfg.Mirror.RabbitMQ.Durable,
		})
		if err != nil {
			return fmt.Errorf("rabbitmq mirror: %w", err)
		}
		closers = append(closers, func() { _ = m.Close() })
		opts = append(opts, journal.WithMirror(m))
	}

	writer, err := journal.NewWriter(cfg.Journal.Path, opts...)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	client, err := gateway.New(token, log)
	if err != nil {
		return fmt.Errorf("gateway client: %w", err)
	}
	norm := normalize.New(cfg.Discord.GuildID, client, cfg.Capture.ExcludedAuthors)
	client.SetDispatcher(dispatch.New(norm, writer, log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("guildscribed starting",
		"guild_id", cfg.Discord.GuildID,
		"journal", cfg.Journal.Path,
		"kafka_mirror", cfg.Mirror.Kafka.Enabled,
		"rabbitmq_mirror", cfg.Mirror.RabbitMQ.Enabled,
	)
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("guildscribed stopped")
	return nil
}
