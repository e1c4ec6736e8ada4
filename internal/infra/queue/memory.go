package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryQueue roda os jobs dentro do processo. Se o processo cair, os jobs pendentes se perdem.
type MemoryQueue struct {
	jobs    chan SyncJob
	handler Handler
	workers int
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewMemoryQueue(capacity, workers int, handler Handler, logger *zap.Logger) *MemoryQueue {
	if capacity <= 0 {
		capacity = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &MemoryQueue{
		jobs:    make(chan SyncJob, capacity),
		handler: handler,
		workers: workers,
		logger:  logger,
	}
}

// Enqueue nunca bloqueia: fila cheia devolve ErrQueueFull.
func (q *MemoryQueue) Enqueue(_ context.Context, job SyncJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		q.logger.Warn("fila de sincronização cheia, job descartado",
			zap.String("job_id", job.ID),
			zap.String("kind", job.Kind),
		)
		return ErrQueueFull
	}
}

// Start sobe os workers; eles param quando ctx é cancelado. Wait espera todos saírem.
func (q *MemoryQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx)
	}
}

func (q *MemoryQueue) Wait() {
	q.wg.Wait()
}

func (q *MemoryQueue) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *MemoryQueue) process(ctx context.Context, job SyncJob) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic no job de sincronização", zap.String("job_id", job.ID), zap.Any("panic", r))
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if err := q.handler(jobCtx, job); err != nil {
		q.logger.Warn("❌ falha no job de sincronização",
			zap.String("job_id", job.ID),
			zap.String("kind", job.Kind),
			zap.Int64("account_key", job.AccountKey),
			zap.Error(err),
		)
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Healthy existe para o health check tratar os dois backends igual.
func (q *MemoryQueue) Healthy() bool { return true }

