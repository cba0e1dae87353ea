package kafka

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultReplayLimit       = 100
	defaultReplayIdleTimeout = 2 * time.Second
)

// OffsetClient — часть sarama.Client, нужная для обхода партиций.
type OffsetClient interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, time int64) (int64, error)
}

// PartitionConsumer — часть sarama.PartitionConsumer.
type PartitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

// PartitionSource открывает чтение партиции с заданного offset.
type PartitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (PartitionConsumer, error)
}

// SaramaPartitionSource адаптирует sarama.Consumer к PartitionSource.
type SaramaPartitionSource struct {
	Consumer sarama.Consumer
}

// ConsumePartition открывает partition consumer.
func (s SaramaPartitionSource) ConsumePartition(topic string, partition int32, offset int64) (PartitionConsumer, error) {
	return s.Consumer.ConsumePartition(topic, partition, offset)
}

// ReplayOptions задаёт параметры повторной публикации из DLQ.
type ReplayOptions struct {
	SourceTopic string
	Limit       int
	IdleTimeout time.Duration
	FromNewest  bool
	// Execute=false — только логирование кандидатов (dry-run).
	Execute bool
}

// ReplayStats — итог обхода DLQ.
type ReplayStats struct {
	Processed int
	Replayed  int
	Skipped   int
}

// Replayer перечитывает DLQ и возвращает исходные события в основной топик.
type Replayer struct {
	client    OffsetClient
	source    PartitionSource
	publisher domain.OutboxPublisher
	logger    *log.Entry
}

// NewReplayer создаёт Replayer. publisher может быть nil в режиме dry-run.
func NewReplayer(client OffsetClient, source PartitionSource, publisher domain.OutboxPublisher, logger *log.Entry) *Replayer {
	if logger == nil {
		logger = log.WithField("component", "dlq-replay")
	}
	return &Replayer{client: client, source: source, publisher: publisher, logger: logger}
}

// Replay обходит партиции source-топика до лимита сообщений.
func (r *Replayer) Replay(ctx context.Context, opts ReplayOptions) (ReplayStats, error) {
	var stats ReplayStats

	if opts.SourceTopic == "" {
		opts.SourceTopic = TopicDeadLetterQueue
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultReplayLimit
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultReplayIdleTimeout
	}
	if r.client == nil || r.source == nil {
		return stats, fmt.Errorf("kafka client and consumer are required")
	}
	if opts.Execute && r.publisher == nil {
		return stats, fmt.Errorf("publisher is required in execute mode")
	}

	partitions, err := r.client.Partitions(opts.SourceTopic)
	if err != nil {
		return stats, fmt.Errorf("get partitions for topic %s: %w", opts.SourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if stats.Processed >= opts.Limit {
			break
		}
		if err := r.replayPartition(ctx, opts, partition, &stats); err != nil {
			return stats, err
		}
	}

	r.logger.WithFields(log.Fields{
		"execute":   opts.Execute,
		"processed": stats.Processed,
		"replayed":  stats.Replayed,
		"skipped":   stats.Skipped,
	}).Info("dlq replay finished")

	return stats, nil
}

func (r *Replayer) replayPartition(ctx context.Context, opts ReplayOptions, partition int32, stats *ReplayStats) error {
	oldest, err := r.client.GetOffset(opts.SourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.client.GetOffset(opts.SourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return nil
	}

	start := oldest
	if opts.FromNewest {
		start = max(newest-int64(opts.Limit-stats.Processed), oldest)
	}

	pc, err := r.source.ConsumePartition(opts.SourceTopic, partition, start)
	if err != nil {
		return fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(opts.IdleTimeout)
	defer idle.Stop()

	for stats.Processed < opts.Limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle.C:
			return nil
		case consumeErr := <-pc.Errors():
			if consumeErr != nil {
				return fmt.Errorf("partition %d consumer error: %w", partition, consumeErr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return nil
			}
			idle.Reset(opts.IdleTimeout)

			stats.Processed++
			if err := r.replayMessage(ctx, opts.Execute, msg); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if opts.Execute && !isDecodeError(err) {
					return err
				}
				stats.Skipped++
				r.logger.WithError(err).WithFields(log.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Warn("skip dlq message")
				continue
			}
			stats.Replayed++

			if msg.Offset+1 >= newest {
				return nil
			}
		}
	}
	return nil
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	_, ok := err.(decodeError)
	return ok
}

func (r *Replayer) replayMessage(ctx context.Context, execute bool, msg *sarama.ConsumerMessage) error {
	envelope, err := DecodeEnvelope(msg.Value)
	if err != nil {
		return decodeError{err}
	}
	letter, err := envelope.DeadLetter()
	if err != nil {
		return decodeError{err}
	}
	original := letter.Original()

	entry := r.logger.WithFields(log.Fields{
		"partition":  msg.Partition,
		"offset":     msg.Offset,
		"outbox_id":  original.ID,
		"event_type": original.EventType,
	})
	if !execute {
		entry.Info("dlq replay candidate")
		return nil
	}

	if err := r.publisher.Publish(ctx, original); err != nil {
		return fmt.Errorf("publish replay message: %w", err)
	}
	entry.Debug("dlq message replayed")
	return nil
}
