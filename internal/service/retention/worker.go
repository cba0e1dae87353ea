// Package retention удерживает служебные таблицы магазина в ограниченном размере:
// удаляет просроченные ключи идемпотентности и давно обработанные сообщения outbox.
package retention

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultInterval        = 10 * time.Minute
	defaultBatchSize       = 500
	defaultOutboxRetention = 24 * time.Hour

	// TargetIdempotency и TargetOutbox — значения label target в метриках.
	TargetIdempotency = "idempotency_keys"
	TargetOutbox      = "outbox_messages"
)

var (
	retentionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_retention_runs_total",
		Help: "Total number of retention sweeps grouped by target and result.",
	}, []string{"target", "result"})
	retentionDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_retention_deleted_total",
		Help: "Total number of rows removed by the retention worker.",
	}, []string{"target"})
	retentionLastDeleted = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "store_retention_last_deleted",
		Help: "Rows removed by the last retention sweep.",
	}, []string{"target"})
)

// Options задаёт параметры воркера.
type Options struct {
	Logger          *log.Entry
	Interval        time.Duration
	BatchSize       int
	OutboxRetention time.Duration
}

// Option настраивает Worker.
type Option func(*Options)

func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithBatchSize ограничивает число строк, удаляемых одним запросом.
func WithBatchSize(batchSize int) Option {
	return func(opts *Options) {
		opts.BatchSize = batchSize
	}
}

// WithOutboxRetention задаёт, сколько хранить отправленные и упавшие сообщения outbox.
func WithOutboxRetention(retention time.Duration) Option {
	return func(opts *Options) {
		opts.OutboxRetention = retention
	}
}

// purgeFunc удаляет до limit строк старше before и возвращает число удалённых.
type purgeFunc func(ctx context.Context, before time.Time, limit int) (int, error)

// sweep — одна таблица под присмотром воркера.
type sweep struct {
	target string
	age    time.Duration
	purge  purgeFunc
}

// Report — результат одного прохода по всем таблицам.
type Report map[string]int

// Worker периодически чистит таблицы idempotency_keys и outbox_messages.
// Pending-сообщения outbox и живые ключи не удаляются никогда.
type Worker struct {
	sweeps    []sweep
	logger    *log.Entry
	interval  time.Duration
	batchSize int
}

// NewWorker создаёт воркер. Nil-репозиторий просто исключается из обхода.
func NewWorker(keys domain.IdempotencyRepository, outbox domain.OutboxRepository, options ...Option) *Worker {
	opts := Options{
		Interval:        defaultInterval,
		BatchSize:       defaultBatchSize,
		OutboxRetention: defaultOutboxRetention,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "retention-worker")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.OutboxRetention <= 0 {
		opts.OutboxRetention = defaultOutboxRetention
	}

	w := &Worker{
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
	// ключ истекает по собственному ttl_at, поэтому возраст не добавляется
	if keys != nil {
		w.sweeps = append(w.sweeps, sweep{target: TargetIdempotency, purge: keys.DeleteExpired})
	}
	if outbox != nil {
		w.sweeps = append(w.sweeps, sweep{target: TargetOutbox, age: opts.OutboxRetention, purge: outbox.PurgeProcessed})
	}
	return w
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if len(w.sweeps) == 0 {
		w.logger.Warn("retention worker is disabled: no repositories")
		return
	}

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	report, err := w.Sweep(ctx, time.Now().UTC())
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.WithError(err).Warn("retention sweep failed")
	}

	fields := log.Fields{}
	for target, deleted := range report {
		if deleted > 0 {
			fields[target] = deleted
		}
	}
	if len(fields) > 0 {
		w.logger.WithFields(fields).Info("retention sweep completed")
	}
}

// Sweep проходит все таблицы относительно момента now. Ошибка одной таблицы
// не останавливает остальные; возвращается первая из них.
func (w *Worker) Sweep(ctx context.Context, now time.Time) (Report, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	report := make(Report, len(w.sweeps))
	var firstErr error
	for _, s := range w.sweeps {
		deleted, err := w.drain(ctx, s.purge, now.Add(-s.age))
		report[s.target] = deleted
		retentionLastDeleted.WithLabelValues(s.target).Set(float64(deleted))

		switch {
		case err == nil:
			retentionRunsTotal.WithLabelValues(s.target, "ok").Inc()
		case errors.Is(err, context.Canceled):
			return report, err
		default:
			retentionRunsTotal.WithLabelValues(s.target, "error").Inc()
			if firstErr == nil {
				firstErr = err
			}
			w.logger.WithError(err).WithField("target", s.target).Warn("retention target failed")
		}
		if deleted > 0 {
			retentionDeletedTotal.WithLabelValues(s.target).Add(float64(deleted))
		}
	}
	return report, firstErr
}

// drain вызывает purge порциями, пока порция не окажется неполной.
func (w *Worker) drain(ctx context.Context, purge purgeFunc, before time.Time) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := purge(ctx, before, w.batchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		if deleted < w.batchSize {
			return total, nil
		}
	}
}
