package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

// replayDependencies — подключения к Kafka, нужные для обхода DLQ.
type replayDependencies struct {
	client   kafka.OffsetClient
	source   kafka.PartitionSource
	producer *kafka.Producer
	closeFn  func()
}

var newReplayDependencies = func(cfg config) (replayDependencies, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, consumerConfig)
	if err != nil {
		return replayDependencies{}, fmt.Errorf("create kafka client: %w", err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return replayDependencies{}, fmt.Errorf("create kafka consumer: %w", err)
	}

	deps := replayDependencies{
		client: client,
		source: kafka.SaramaPartitionSource{Consumer: consumer},
	}
	if cfg.execute {
		producer, err := kafka.NewProducer(cfg.brokers, log.WithField("component", "dlq-replay"))
		if err != nil {
			_ = consumer.Close()
			_ = client.Close()
			return replayDependencies{}, err
		}
		deps.producer = producer
	}

	deps.closeFn = func() {
		if deps.producer != nil {
			_ = deps.producer.Close()
		}
		_ = consumer.Close()
		_ = client.Close()
	}
	return deps, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(os.Args[1:], os.LookupEnv)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		fail("dlq replay failed: %v", err)
	}
}

func readConfig(args []string, lookup func(string) (string, bool)) (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	fs := flag.NewFlagSet("dlq-replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: "+app.EnvKafkaBrokers+")")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicStoreEvents, "target topic for replay")
	fs.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of messages to scan/replay")
	fs.BoolVar(&cfg.execute, "execute", false, "execute replay; default is dry-run")
	fs.BoolVar(&cfg.fromNewest, "from-newest", false, "scan latest messages first (bounded by limit)")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw, _ = lookup(app.EnvKafkaBrokers)
	}

	cfg.brokers = app.ParseBrokers(brokersRaw)
	cfg.sourceTopic = strings.TrimSpace(cfg.sourceTopic)
	cfg.targetTopic = strings.TrimSpace(cfg.targetTopic)

	switch {
	case len(cfg.brokers) == 0:
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or %s)", app.EnvKafkaBrokers)
	case cfg.sourceTopic == "":
		return config{}, fmt.Errorf("source-topic is required")
	case cfg.targetTopic == "":
		return config{}, fmt.Errorf("target-topic is required")
	case cfg.sourceTopic == cfg.targetTopic:
		return config{}, fmt.Errorf("source-topic and target-topic must differ")
	case cfg.limit <= 0:
		return config{}, fmt.Errorf("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, fmt.Errorf("idle-timeout must be > 0")
	}

	return cfg, nil
}

func run(ctx context.Context, cfg config) (kafka.ReplayStats, error) {
	logger := log.WithField("component", "dlq-replay")
	logger.WithFields(log.Fields{
		"source_topic": cfg.sourceTopic,
		"target_topic": cfg.targetTopic,
		"limit":        cfg.limit,
		"execute":      cfg.execute,
		"from_newest":  cfg.fromNewest,
	}).Info("starting dlq replay")

	deps, err := newReplayDependencies(cfg)
	if err != nil {
		return kafka.ReplayStats{}, err
	}
	if deps.closeFn != nil {
		defer deps.closeFn()
	}

	var publisher domain.OutboxPublisher
	if deps.producer != nil {
		publisher = kafka.NewOutboxPublisher(deps.producer, cfg.targetTopic)
	}
	if cfg.execute && publisher == nil {
		return kafka.ReplayStats{}, fmt.Errorf("producer is required in execute mode")
	}

	return kafka.NewReplayer(deps.client, deps.source, publisher, logger).Replay(ctx, kafka.ReplayOptions{
		SourceTopic: cfg.sourceTopic,
		Limit:       cfg.limit,
		IdleTimeout: cfg.idleTimeout,
		FromNewest:  cfg.fromNewest,
		Execute:     cfg.execute,
	})
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
