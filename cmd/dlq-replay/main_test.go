package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

type stubOffsets struct {
	newest int64
}

func (s stubOffsets) Partitions(string) ([]int32, error) { return []int32{0}, nil }

func (s stubOffsets) GetOffset(_ string, _ int32, at int64) (int64, error) {
	if at == sarama.OffsetOldest {
		return 0, nil
	}
	return s.newest, nil
}

type stubPartitionConsumer struct {
	messages chan *sarama.ConsumerMessage
}

func (s stubPartitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return s.messages }
func (s stubPartitionConsumer) Errors() <-chan *sarama.ConsumerError     { return nil }
func (s stubPartitionConsumer) Close() error                             { return nil }

type stubSource struct {
	messages []*sarama.ConsumerMessage
}

func (s stubSource) ConsumePartition(string, int32, int64) (kafka.PartitionConsumer, error) {
	ch := make(chan *sarama.ConsumerMessage, len(s.messages))
	for _, msg := range s.messages {
		ch <- msg
	}
	return stubPartitionConsumer{messages: ch}, nil
}

func deadLetterValue(t *testing.T, id string) []byte {
	t.Helper()

	dlq, err := domain.NewDeadLetter(domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateProduct,
		AggregateID:   "product-" + id,
		EventType:     domain.EventProductStockUpdated,
		Payload:       []byte(`{"product_id":"product-` + id + `","quantity":7}`),
	}, errors.New("broker unavailable"))
	require.NoError(t, err)

	value, err := json.Marshal(kafka.NewEnvelope(dlq))
	require.NoError(t, err)
	return value
}

func withDependencies(t *testing.T, deps replayDependencies) {
	t.Helper()

	prev := newReplayDependencies
	newReplayDependencies = func(config) (replayDependencies, error) { return deps, nil }
	t.Cleanup(func() { newReplayDependencies = prev })
}

func TestReadConfig_DefaultsFromEnv(t *testing.T) {
	cfg, err := readConfig(nil, mapLookup(map[string]string{app.EnvKafkaBrokers: "k1:9092, k2:9092"}))
	require.NoError(t, err)

	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.brokers)
	require.Equal(t, kafka.TopicDeadLetterQueue, cfg.sourceTopic)
	require.Equal(t, kafka.TopicStoreEvents, cfg.targetTopic)
	require.Equal(t, defaultReplayLimit, cfg.limit)
	require.Equal(t, defaultIdleTimeout, cfg.idleTimeout)
	require.False(t, cfg.execute)
}

func TestReadConfig_Flags(t *testing.T) {
	cfg, err := readConfig([]string{
		"-brokers=flag:9092",
		"-target-topic=store.events.replay",
		"-limit=5",
		"-execute",
		"-from-newest",
		"-idle-timeout=500ms",
	}, mapLookup(map[string]string{app.EnvKafkaBrokers: "env:9092"}))
	require.NoError(t, err)

	require.Equal(t, []string{"flag:9092"}, cfg.brokers)
	require.Equal(t, "store.events.replay", cfg.targetTopic)
	require.Equal(t, 5, cfg.limit)
	require.True(t, cfg.execute)
	require.True(t, cfg.fromNewest)
	require.Equal(t, 500*time.Millisecond, cfg.idleTimeout)
}

func TestReadConfig_Errors(t *testing.T) {
	cases := map[string][]string{
		"no brokers":       nil,
		"zero limit":       {"-brokers=k:9092", "-limit=0"},
		"zero idle":        {"-brokers=k:9092", "-idle-timeout=0s"},
		"empty source":     {"-brokers=k:9092", "-source-topic= "},
		"same topics":      {"-brokers=k:9092", "-source-topic=a", "-target-topic=a"},
		"unknown argument": {"-brokers=k:9092", "-verbose"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readConfig(args, mapLookup(nil))
			require.Error(t, err)
		})
	}
}

func TestRun_DryRun(t *testing.T) {
	withDependencies(t, replayDependencies{
		client: stubOffsets{newest: 1},
		source: stubSource{messages: []*sarama.ConsumerMessage{
			{Topic: kafka.TopicDeadLetterQueue, Offset: 0, Value: deadLetterValue(t, "a")},
		}},
	})

	stats, err := run(context.Background(), config{
		sourceTopic: kafka.TopicDeadLetterQueue,
		targetTopic: kafka.TopicStoreEvents,
		limit:       10,
		idleTimeout: time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, kafka.ReplayStats{Processed: 1, Replayed: 1}, stats)
}

func TestRun_ExecuteRepublishesOriginalEvent(t *testing.T) {
	syncProducer := mocks.NewSyncProducer(t, nil)
	syncProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		envelope, err := kafka.DecodeEnvelope(val)
		if err != nil {
			return err
		}
		if envelope.ID != "a" || envelope.EventType != domain.EventProductStockUpdated {
			return errors.New("unexpected replayed envelope")
		}
		return nil
	})

	closed := false
	producer := kafka.NewProducerFromSync(syncProducer, nil)
	withDependencies(t, replayDependencies{
		client: stubOffsets{newest: 2},
		source: stubSource{messages: []*sarama.ConsumerMessage{
			{Topic: kafka.TopicDeadLetterQueue, Offset: 0, Value: []byte("not json")},
			{Topic: kafka.TopicDeadLetterQueue, Offset: 1, Value: deadLetterValue(t, "a")},
		}},
		producer: producer,
		closeFn: func() {
			closed = true
			_ = producer.Close()
		},
	})

	stats, err := run(context.Background(), config{
		sourceTopic: kafka.TopicDeadLetterQueue,
		targetTopic: kafka.TopicStoreEvents,
		limit:       10,
		execute:     true,
		idleTimeout: time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, kafka.ReplayStats{Processed: 2, Replayed: 1, Skipped: 1}, stats)
	require.True(t, closed)
}

func TestRun_ExecuteWithoutProducer(t *testing.T) {
	withDependencies(t, replayDependencies{
		client: stubOffsets{newest: 1},
		source: stubSource{},
	})

	_, err := run(context.Background(), config{execute: true, limit: 1, idleTimeout: time.Second})
	require.ErrorContains(t, err, "producer is required")
}

func TestRun_DependencyError(t *testing.T) {
	prev := newReplayDependencies
	newReplayDependencies = func(config) (replayDependencies, error) {
		return replayDependencies{}, errors.New("kafka down")
	}
	t.Cleanup(func() { newReplayDependencies = prev })

	_, err := run(context.Background(), config{limit: 1, idleTimeout: time.Second})
	require.ErrorContains(t, err, "kafka down")
}
