package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Переменные окружения, переопределяющие DefaultConfig.
const (
	EnvGRPCAddr            = "STORE_GRPC_ADDR"
	EnvMetricsAddr         = "STORE_METRICS_ADDR"
	EnvStorageDriver       = "STORE_STORAGE_DRIVER"
	EnvPostgresDSN         = "STORE_POSTGRES_DSN"
	EnvPostgresAutoMigrate = "STORE_POSTGRES_AUTO_MIGRATE"
	EnvPostgresTxAttempts  = "STORE_POSTGRES_TX_ATTEMPTS"
	EnvKafkaBrokers        = "STORE_KAFKA_BROKERS"
	EnvKafkaTopic          = "STORE_KAFKA_TOPIC"
	EnvKafkaDLQTopic       = "STORE_KAFKA_DLQ_TOPIC"
	EnvOutboxPollInterval  = "STORE_OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize     = "STORE_OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts   = "STORE_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetryDelay    = "STORE_OUTBOX_RETRY_DELAY"
	EnvOutboxMaxPending    = "STORE_OUTBOX_MAX_PENDING"
	EnvRetentionInterval   = "STORE_RETENTION_INTERVAL"
	EnvRetentionBatchSize  = "STORE_RETENTION_BATCH_SIZE"
	EnvOutboxRetention     = "STORE_OUTBOX_RETENTION"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	// PostgresTxAttempts > 1 включает повтор транзакций после deadlock.
	PostgresTxAttempts int

	// KafkaBrokers пуст — outbox копится без публикации.
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, после которого /healthz сообщает degraded.
	OutboxMaxPending int

	RetentionInterval  time.Duration
	RetentionBatchSize int
	// OutboxRetention — сколько хранить отправленные и упавшие сообщения outbox.
	OutboxRetention time.Duration
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		PostgresTxAttempts:  1,
		KafkaTopic:          kafka.TopicStoreEvents,
		KafkaDLQTopic:       kafka.TopicDeadLetterQueue,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		OutboxMaxPending:    1000,
		RetentionInterval:   10 * time.Minute,
		RetentionBatchSize:  500,
		OutboxRetention:     24 * time.Hour,
	}
}

// ConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения игнорируются и возвращаются как предупреждения.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	get := func(key string) (string, bool) {
		raw, ok := lookup(key)
		if !ok {
			return "", false
		}
		raw = strings.TrimSpace(raw)
		return raw, raw != ""
	}
	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, raw, err))
	}

	if v, ok := get(EnvGRPCAddr); ok {
		cfg.GRPCAddr = v
	}
	if v, ok := get(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := get(EnvStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := get(EnvPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := get(EnvPostgresAutoMigrate); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(EnvPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := get(EnvKafkaBrokers); ok {
		cfg.KafkaBrokers = ParseBrokers(v)
	}
	if v, ok := get(EnvKafkaTopic); ok {
		cfg.KafkaTopic = v
	}
	if v, ok := get(EnvKafkaDLQTopic); ok {
		cfg.KafkaDLQTopic = v
	}

	durations := []struct {
		key       string
		dst       *time.Duration
		allowZero bool
	}{
		{EnvOutboxPollInterval, &cfg.OutboxPollInterval, false},
		{EnvOutboxRetryDelay, &cfg.OutboxRetryDelay, true},
		{EnvRetentionInterval, &cfg.RetentionInterval, false},
		{EnvOutboxRetention, &cfg.OutboxRetention, false},
	}
	for _, d := range durations {
		v, ok := get(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err == nil && (parsed < 0 || (parsed == 0 && !d.allowZero)) {
			err = fmt.Errorf("must be positive")
		}
		if err != nil {
			warn(d.key, v, err)
			continue
		}
		*d.dst = parsed
	}

	ints := []struct {
		key       string
		dst       *int
		allowZero bool
	}{
		{EnvPostgresTxAttempts, &cfg.PostgresTxAttempts, false},
		{EnvOutboxBatchSize, &cfg.OutboxBatchSize, false},
		{EnvOutboxMaxAttempts, &cfg.OutboxMaxAttempts, false},
		{EnvOutboxMaxPending, &cfg.OutboxMaxPending, true},
		{EnvRetentionBatchSize, &cfg.RetentionBatchSize, false},
	}
	for _, i := range ints {
		v, ok := get(i.key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err == nil && (parsed < 0 || (parsed == 0 && !i.allowZero)) {
			err = fmt.Errorf("must be positive")
		}
		if err != nil {
			warn(i.key, v, err)
			continue
		}
		*i.dst = parsed
	}

	return cfg, warnings
}

// Validate проверяет согласованность настроек перед запуском.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%s is required for %s storage", EnvPostgresDSN, StorageDriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.GRPCAddr == "" {
		return fmt.Errorf("grpc address is required")
	}
	return nil
}

// ParseBrokers разбирает список брокеров через запятую.
func ParseBrokers(raw string) []string {
	chunks := strings.Split(raw, ",")
	brokers := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
