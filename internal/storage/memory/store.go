package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// errTxFinished — репозитории транзакции использованы после её завершения.
var errTxFinished = errors.New("memory: transaction already finished")

// dataset — все таблицы in-memory хранилища вместе с индексами,
// которые заменяют UNIQUE-ограничения и индексы PostgreSQL.
type dataset struct {
	customers       map[string]domain.Customer
	customerByEmail map[string]string

	products      map[string]domain.Product
	productByName map[string]string

	orders         map[string]domain.Order
	customerOrders map[string][]string

	outbox outboxTable

	idempotency map[string]domain.IdempotencyRecord
}

func newDataset() *dataset {
	return &dataset{
		customers:       make(map[string]domain.Customer),
		customerByEmail: make(map[string]string),
		products:        make(map[string]domain.Product),
		productByName:   make(map[string]string),
		orders:          make(map[string]domain.Order),
		customerOrders:  make(map[string][]string),
		outbox:          outboxTable{records: make(map[string]outboxRecord)},
		idempotency:     make(map[string]domain.IdempotencyRecord),
	}
}

// changeLog копит обратные операции для изменений одной транзакции.
// Откат проигрывает их в обратном порядке, поэтому стоимость транзакции
// зависит только от числа затронутых строк.
type changeLog struct {
	undo     []func()
	finished bool
}

func (l *changeLog) record(fn func()) {
	l.undo = append(l.undo, fn)
}

func (l *changeLog) rollback() {
	for i := len(l.undo) - 1; i >= 0; i-- {
		l.undo[i]()
	}
	l.undo = nil
}

// setRow записывает значение и запоминает, как вернуть прежнее.
func setRow[K comparable, V any](changes *changeLog, m map[K]V, key K, value V) {
	prev, existed := m[key]
	changes.record(func() {
		if existed {
			m[key] = prev
			return
		}
		delete(m, key)
	})
	m[key] = value
}

// deleteRow удаляет значение и запоминает, как его восстановить.
func deleteRow[K comparable, V any](changes *changeLog, m map[K]V, key K) {
	prev, existed := m[key]
	if !existed {
		return
	}
	changes.record(func() { m[key] = prev })
	delete(m, key)
}

// setField меняет поле структуры с возможностью отката.
func setField[T any](changes *changeLog, field *T, value T) {
	prev := *field
	changes.record(func() { *field = prev })
	*field = value
}

// Store — in-memory реализация UnitOfWork для локальной разработки и тестов.
// Транзакции сериализуются мьютексом и меняют данные на месте; при ошибке
// изменения откатываются по журналу.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Repositories возвращает репозитории в режиме автокоммита.
func (s *Store) Repositories() domain.Repositories {
	return s.repositories(nil)
}

// WithinTx выполняет fn под мьютексом хранилища. Ошибка fn, паника или
// отмена ctx откатывают все изменения транзакции.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &changeLog{}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			tx.finished = true
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
		tx.finished = true
	}()

	if err = fn(ctx, s.repositories(tx)); err != nil {
		return err
	}
	return ctx.Err()
}

// Ping для in-memory хранилища проверяет только контекст.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) repositories(tx *changeLog) domain.Repositories {
	a := access{store: s, tx: tx}
	return domain.Repositories{
		Customers: &customerRepository{access: a},
		Products:  &productRepository{access: a},
		Orders:    &orderRepository{access: a},
		Outbox:    &outboxRepository{access: a},
	}
}

// access выбирает режим работы репозитория: внутри транзакции мьютекс уже
// взят и изменения пишутся в её журнал, в автокоммите каждая операция
// берёт мьютекс и откатывает только себя.
type access struct {
	store *Store
	tx    *changeLog
}

func (a access) read(fn func(d *dataset) error) error {
	if a.tx != nil {
		if a.tx.finished {
			return errTxFinished
		}
		return fn(a.store.data)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.data)
}

func (a access) write(fn func(d *dataset, changes *changeLog) error) error {
	if a.tx != nil {
		if a.tx.finished {
			return errTxFinished
		}
		return fn(a.store.data, a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	changes := &changeLog{}
	if err := fn(a.store.data, changes); err != nil {
		changes.rollback()
		return err
	}
	return nil
}

var _ domain.UnitOfWork = (*Store)(nil)
