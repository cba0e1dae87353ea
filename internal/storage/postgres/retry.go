package postgres

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Коды ошибок, после которых транзакцию можно безопасно повторить целиком.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// RetryConfig задаёт повтор транзакций при конфликтах блокировок.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func isRetryableTxError(err error) bool {
	switch pgErrorCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	default:
		return false
	}
}

// retryTx вызывает attempt, пока ошибка retryable и попытки не исчерпаны.
// Ожидание между попытками прерывается отменой ctx.
func retryTx(ctx context.Context, cfg RetryConfig, logger *log.Entry, attempt func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.InitialDelay

	var err error
	for n := 1; n <= cfg.MaxAttempts; n++ {
		err = attempt()
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		if n == cfg.MaxAttempts {
			break
		}

		logger.WithError(err).WithFields(log.Fields{
			"attempt": n,
			"delay":   delay,
		}).Warn("transaction conflict, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	if cfg.MaxAttempts > 1 {
		logger.WithError(err).WithField("max_attempts", cfg.MaxAttempts).Error("transaction failed after all retry attempts")
	}
	return err
}
