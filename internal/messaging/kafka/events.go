package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Topics для Kafka
const (
	TopicStoreEvents     = "store.events"
	TopicDeadLetterQueue = "store.dlq"
)

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
)

// Envelope — формат сообщения в топиках магазина.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewEnvelope оборачивает сообщение outbox.
func NewEnvelope(msg domain.OutboxMessage) Envelope {
	return Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		PublishedAt:   time.Now().UTC(),
	}
}

// Key возвращает ключ партиционирования: события одного агрегата идут в одну партицию.
func (e Envelope) Key() string {
	if e.AggregateID != "" {
		return e.AggregateID
	}
	return e.ID
}

// DecodeEnvelope разбирает значение сообщения Kafka.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.EventType == "" {
		return Envelope{}, fmt.Errorf("decode envelope: event_type is empty")
	}
	return envelope, nil
}

// DeadLetter извлекает исходное событие из сообщения DLQ.
func (e Envelope) DeadLetter() (domain.DeadLetter, error) {
	var letter domain.DeadLetter
	if err := json.Unmarshal(e.Payload, &letter); err != nil {
		return domain.DeadLetter{}, fmt.Errorf("decode dead letter: %w", err)
	}
	if len(letter.Payload) == 0 {
		return domain.DeadLetter{}, fmt.Errorf("dead letter does not contain original payload")
	}
	if letter.OutboxID == "" {
		letter.OutboxID = e.ID
	}
	if letter.EventType == "" {
		letter.EventType = e.EventType
	}
	return letter, nil
}
