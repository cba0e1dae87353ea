package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
	txTimeout = 15 * time.Second
)

// Коды ошибок PostgreSQL, которые переводятся в доменные ошибки.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
)

// querier — общее подмножество *sql.DB и *sql.Tx, с которым работают репозитории.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store оборачивает SQL-подключение к PostgreSQL и реализует UnitOfWork.
type Store struct {
	db     *sql.DB
	retry  RetryConfig
	logger *log.Entry
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{
		db:     db,
		retry:  RetryConfig{MaxAttempts: 1},
		logger: log.WithField("component", "postgres-store"),
	}, nil
}

// SetRetryConfig включает повтор транзакций при конфликтах блокировок.
// По умолчанию выполняется одна попытка.
func (s *Store) SetRetryConfig(cfg RetryConfig) {
	s.retry = cfg
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Repositories возвращает репозитории, где каждый вызов — отдельная транзакция.
func (s *Store) Repositories() domain.Repositories {
	return repositoriesFor(s.db)
}

// WithinTx выполняет fn в транзакции READ COMMITTED. Ошибка fn, паника
// или ошибка commit откатывают все изменения. Deadlock и serialization
// failure повторяются целиком, если это разрешено RetryConfig.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	if s == nil || s.db == nil {
		return domain.WrapStorage(errors.New("postgres store is not initialized"))
	}
	return retryTx(ctx, s.retry, s.logger, func() error {
		return s.withinTxOnce(ctx, fn)
	})
}

func (s *Store) withinTxOnce(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return domain.WrapStorage(fmt.Errorf("begin tx: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txCtx, repositoriesFor(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return domain.WrapStorage(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func repositoriesFor(q querier) domain.Repositories {
	return domain.Repositories{
		Customers: &customerRepository{q: q},
		Products:  &productRepository{q: q},
		Orders:    &orderRepository{q: q},
		Outbox:    &outboxRepository{q: q},
	}
}

// withTimeout ограничивает одиночный запрос, не расширяя дедлайн транзакции.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isCheckViolation(err error) bool {
	return pgErrorCode(err) == pgCheckViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

var _ domain.UnitOfWork = (*Store)(nil)
