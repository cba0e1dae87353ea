package app

import (
	"testing"

	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	producer, err := initKafkaProducer(nil, log.WithField("test", "kafka"))
	if err != nil {
		t.Errorf("expected no error for empty brokers, got %v", err)
	}
	if producer != nil {
		t.Error("expected nil producer for empty brokers")
	}
}

func TestCloseKafkaProducer_Nil(_ *testing.T) {
	closeKafkaProducer(nil, log.WithField("test", "kafka"))
}

func TestCloseKafkaProducer_WithProducer(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := kafka.NewProducerFromSync(mockProducer, nil)

	closeKafkaProducer(producer, log.WithField("test", "kafka"))
}
