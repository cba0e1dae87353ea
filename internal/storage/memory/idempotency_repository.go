package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// defaultIdempotencyTTL применяется, когда вызывающий не задал срок жизни ключа.
const defaultIdempotencyTTL = 24 * time.Hour

// idempotencyRepository хранит ключи gRPC-вызовов в той же памяти, что и
// заказы, как таблица idempotency_keys лежит рядом с ними в PostgreSQL.
// Ключ фиксируется до бизнес-транзакции, поэтому репозиторий работает
// только в автокоммите.
type idempotencyRepository struct {
	access
}

// Idempotency возвращает репозиторий ключей идемпотентности этого хранилища.
func (s *Store) Idempotency() domain.IdempotencyRepository {
	return &idempotencyRepository{access: access{store: s}}
}

// CreateProcessing резервирует ключ. Занятый ключ возвращается вместе с ошибкой,
// чтобы вызывающий мог отдать сохранённый ответ.
func (r *idempotencyRepository) CreateProcessing(_ context.Context, key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	key, requestHash = strings.TrimSpace(key), strings.TrimSpace(requestHash)
	switch {
	case key == "":
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	case requestHash == "":
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	now := time.Now().UTC()
	if ttlAt.IsZero() {
		ttlAt = now.Add(defaultIdempotencyTTL)
	}
	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var existing domain.IdempotencyRecord
	err := r.write(func(d *dataset, changes *changeLog) error {
		if found, ok := d.idempotency[key]; ok {
			existing = copyIdempotencyRecord(found)
			if found.RequestHash != requestHash {
				return domain.ErrIdempotencyHashMismatch
			}
			return domain.ErrIdempotencyKeyAlreadyExists
		}
		setRow(changes, d.idempotency, key, record)
		return nil
	})
	if err != nil {
		return existing, err
	}
	return record, nil
}

// Get возвращает запись по ключу или ErrIdempotencyKeyNotFound.
func (r *idempotencyRepository) Get(_ context.Context, key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	var record domain.IdempotencyRecord
	err := r.read(func(d *dataset) error {
		found, ok := d.idempotency[key]
		if !ok {
			return domain.ErrIdempotencyKeyNotFound
		}
		record = copyIdempotencyRecord(found)
		return nil
	})
	return record, err
}

func (r *idempotencyRepository) MarkDone(_ context.Context, key string, responseBody []byte, statusCode int) error {
	return r.finish(key, domain.IdempotencyStatusDone, responseBody, statusCode)
}

func (r *idempotencyRepository) MarkFailed(_ context.Context, key string, responseBody []byte, statusCode int) error {
	return r.finish(key, domain.IdempotencyStatusFailed, responseBody, statusCode)
}

// DeleteExpired удаляет до limit ключей с ttl <= before, начиная с самых старых.
func (r *idempotencyRepository) DeleteExpired(_ context.Context, before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	removed := 0
	err := r.write(func(d *dataset, changes *changeLog) error {
		expired := make([]domain.IdempotencyRecord, 0)
		for _, record := range d.idempotency {
			if !record.TTLAt.After(before) {
				expired = append(expired, record)
			}
		}
		sort.Slice(expired, func(i, j int) bool {
			if !expired[i].TTLAt.Equal(expired[j].TTLAt) {
				return expired[i].TTLAt.Before(expired[j].TTLAt)
			}
			return expired[i].Key < expired[j].Key
		})
		if limit > 0 && len(expired) > limit {
			expired = expired[:limit]
		}

		for _, record := range expired {
			deleteRow(changes, d.idempotency, record.Key)
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

func (r *idempotencyRepository) finish(key string, status domain.IdempotencyStatus, responseBody []byte, statusCode int) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	return r.write(func(d *dataset, changes *changeLog) error {
		record, ok := d.idempotency[key]
		if !ok {
			return domain.ErrIdempotencyKeyNotFound
		}
		record.Status = status
		record.ResponseBody = append([]byte(nil), responseBody...)
		record.StatusCode = statusCode
		record.UpdatedAt = time.Now().UTC()
		setRow(changes, d.idempotency, key, record)
		return nil
	})
}

func copyIdempotencyRecord(src domain.IdempotencyRecord) domain.IdempotencyRecord {
	dst := src
	dst.ResponseBody = append([]byte(nil), src.ResponseBody...)
	return dst
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
