package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"

	defaultPullLimit = 100
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	seq        int64
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// outboxTable — таблица outbox с двумя очередями вместо индексов:
// pending в порядке постановки и обработанные в порядке обработки.
// В голове pending всегда лежит необработанное сообщение.
type outboxTable struct {
	records      map[string]outboxRecord
	seq          int64
	pending      []string
	pendingCount int
	processed    []string
}

// outboxRepository — in-memory хранилище для transactional outbox.
type outboxRepository struct {
	access
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его идентификатор.
func (r *outboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Payload = append([]byte(nil), msg.Payload...)
	now := time.Now().UTC()

	err := r.write(func(d *dataset, changes *changeLog) error {
		t := &d.outbox
		setField(changes, &t.seq, t.seq+1)
		setRow(changes, t.records, msg.ID, outboxRecord{
			msg:       msg,
			seq:       t.seq,
			status:    outboxStatusPending,
			createdAt: now,
			updatedAt: now,
		})
		setField(changes, &t.pending, append(t.pending, msg.ID))
		setField(changes, &t.pendingCount, t.pendingCount+1)
		return nil
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending` в порядке постановки.
func (r *outboxRepository) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultPullLimit
	}

	var result []domain.OutboxMessage
	err := r.read(func(d *dataset) error {
		result = make([]domain.OutboxMessage, 0, min(limit, d.outbox.pendingCount))
		for _, id := range d.outbox.pending {
			if len(result) == limit {
				break
			}
			if rec, ok := d.outbox.records[id]; ok && rec.status == outboxStatusPending {
				result = append(result, rec.msg)
			}
		}
		return nil
	})
	return result, err
}

// Stats возвращает размер backlog и время самого старого pending-сообщения.
func (r *outboxRepository) Stats(_ context.Context) (domain.OutboxStats, error) {
	var stats domain.OutboxStats
	err := r.read(func(d *dataset) error {
		stats.PendingCount = d.outbox.pendingCount
		for _, id := range d.outbox.pending {
			if rec, ok := d.outbox.records[id]; ok && rec.status == outboxStatusPending {
				stats.OldestPendingAt = rec.createdAt
				break
			}
		}
		return nil
	})
	return stats, err
}

// MarkSent обновляет статус события после успешной публикации.
func (r *outboxRepository) MarkSent(_ context.Context, id string) error {
	return r.markStatus(id, outboxStatusSent)
}

// MarkFailed фиксирует ошибку публикации.
func (r *outboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.markStatus(id, outboxStatusFailed)
}

// PurgeProcessed удаляет до limit отправленных или упавших сообщений,
// обработанных раньше before. Pending-сообщения не трогаются.
func (r *outboxRepository) PurgeProcessed(_ context.Context, before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	removed := 0
	err := r.write(func(d *dataset, changes *changeLog) error {
		t := &d.outbox
		next := 0
		for ; next < len(t.processed); next++ {
			if limit > 0 && removed >= limit {
				break
			}
			rec, ok := t.records[t.processed[next]]
			if !ok {
				continue
			}
			if !rec.updatedAt.Before(before) {
				break
			}
			deleteRow(changes, t.records, rec.msg.ID)
			removed++
		}
		setField(changes, &t.processed, t.processed[next:])
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *outboxRepository) markStatus(id, status string) error {
	return r.write(func(d *dataset, changes *changeLog) error {
		t := &d.outbox
		record, ok := t.records[id]
		if !ok {
			return domain.ErrOutboxPublish
		}

		wasPending := record.status == outboxStatusPending
		record.status = status
		record.attemptCnt++
		record.updatedAt = time.Now().UTC()
		setRow(changes, t.records, id, record)

		if !wasPending {
			return nil
		}
		setField(changes, &t.pendingCount, t.pendingCount-1)
		setField(changes, &t.processed, append(t.processed, id))

		head := 0
		for head < len(t.pending) {
			rec, ok := t.records[t.pending[head]]
			if ok && rec.status == outboxStatusPending {
				break
			}
			head++
		}
		if head > 0 {
			setField(changes, &t.pending, t.pending[head:])
		}
		return nil
	})
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
