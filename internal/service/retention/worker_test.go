package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestWorker_Sweep_MemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	keys := store.Idempotency()
	outbox := store.Repositories().Outbox
	now := time.Now().UTC()

	for _, key := range []string{"expired-1", "expired-2", "expired-3"} {
		_, err := keys.CreateProcessing(ctx, key, "hash", now.Add(-time.Minute))
		require.NoError(t, err)
	}
	_, err := keys.CreateProcessing(ctx, "alive", "hash", now.Add(3*time.Hour))
	require.NoError(t, err)

	var sent []string
	for i := 0; i < 5; i++ {
		msg, err := outbox.Enqueue(ctx, domain.OutboxMessage{AggregateType: "order", AggregateID: "o", EventType: domain.EventOrderCreated})
		require.NoError(t, err)
		sent = append(sent, msg.ID)
	}
	pending, err := outbox.Enqueue(ctx, domain.OutboxMessage{AggregateType: "order", AggregateID: "o", EventType: domain.EventOrderCreated})
	require.NoError(t, err)
	for _, id := range sent[:4] {
		require.NoError(t, outbox.MarkSent(ctx, id))
	}
	require.NoError(t, outbox.MarkFailed(ctx, sent[4]))

	worker := NewWorker(keys, outbox, WithBatchSize(2), WithOutboxRetention(time.Hour))

	// сообщения обработаны только что и ещё в пределах окна хранения
	report, err := worker.Sweep(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 3, report[TargetIdempotency])
	require.Equal(t, 0, report[TargetOutbox])

	report, err = worker.Sweep(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, report[TargetIdempotency])
	require.Equal(t, 5, report[TargetOutbox])

	_, err = keys.Get(ctx, "expired-1")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	_, err = keys.Get(ctx, "alive")
	require.NoError(t, err)

	left, err := outbox.PullPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, pending.ID, left[0].ID)
}

func TestWorker_Sweep_Batches(t *testing.T) {
	t.Parallel()

	keys := newStubKeys([]int{2, 2, 1})
	outbox := newStubOutbox(2, 0)
	worker := NewWorker(keys, outbox, WithBatchSize(2), WithOutboxRetention(30*time.Minute))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report, err := worker.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, Report{TargetIdempotency: 5, TargetOutbox: 2}, report)
	require.Equal(t, 3, keys.calls())
	require.Equal(t, 2, outbox.calls())
	require.Equal(t, now, keys.lastBefore())
	require.Equal(t, now.Add(-30*time.Minute), outbox.lastBefore())
}

func TestWorker_Sweep_ErrorDoesNotStopOtherTargets(t *testing.T) {
	t.Parallel()

	keys := newStubKeys(nil, domain.ErrStorage)
	outbox := newStubOutbox(1)
	worker := NewWorker(keys, outbox, WithBatchSize(10))

	report, err := worker.Sweep(context.Background(), time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrStorage)
	require.Equal(t, 0, report[TargetIdempotency])
	require.Equal(t, 1, report[TargetOutbox])
}

func TestWorker_Sweep_CanceledContext(t *testing.T) {
	t.Parallel()

	keys := newStubKeys(nil)
	outbox := newStubOutbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWorker(keys, outbox).Sweep(ctx, time.Time{})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, keys.calls())
	require.Zero(t, outbox.calls())
}

func TestWorker_SkipsMissingRepositories(t *testing.T) {
	t.Parallel()

	outbox := newStubOutbox(3)
	report, err := NewWorker(nil, outbox).Sweep(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, Report{TargetOutbox: 3}, report)

	// без репозиториев Run сразу возвращается
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewWorker(nil, nil).Run(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker must return immediately")
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	keys := newStubKeys(nil)
	outbox := newStubOutbox()
	worker := NewWorker(keys, outbox, WithInterval(5*time.Millisecond), WithBatchSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	require.Eventually(t, func() bool { return outbox.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
	require.Positive(t, keys.calls())
}

// purgeRecorder отдаёт заранее заданные результаты и запоминает вызовы.
type purgeRecorder struct {
	mu      sync.Mutex
	results []int
	errs    []error
	count   int
	before  time.Time
}

func (p *purgeRecorder) purge(before time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	p.before = before
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	if len(p.results) == 0 {
		return 0, nil
	}
	result := p.results[0]
	p.results = p.results[1:]
	return result, nil
}

func (p *purgeRecorder) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *purgeRecorder) lastBefore() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.before
}

type stubKeys struct {
	domain.IdempotencyRepository
	*purgeRecorder
}

func newStubKeys(results []int, errs ...error) *stubKeys {
	return &stubKeys{purgeRecorder: &purgeRecorder{results: results, errs: errs}}
}

func (s *stubKeys) DeleteExpired(_ context.Context, before time.Time, _ int) (int, error) {
	return s.purge(before)
}

type stubOutbox struct {
	domain.OutboxRepository
	*purgeRecorder
}

func newStubOutbox(results ...int) *stubOutbox {
	return &stubOutbox{purgeRecorder: &purgeRecorder{results: results}}
}

func (s *stubOutbox) PurgeProcessed(_ context.Context, before time.Time, _ int) (int, error) {
	return s.purge(before)
}
