package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of background work: the email or ledger side effect
// of a request that has already returned to the client.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue runs tasks on a single worker with per-task retry. It replaces
// the old pattern of firing an unawaited closure and hoping: a failed
// task is retried with backoff and only dropped, loudly, after the
// attempt budget is spent.
type Queue struct {
	ch          chan Task
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

func NewQueue(buffer, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Queue{
		ch:          make(chan Task, buffer),
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger,
	}
}

// Enqueue hands a task to the worker. It never blocks the request path;
// when the buffer is full the task is dropped and logged.
func (q *Queue) Enqueue(task Task) {
	select {
	case q.ch <- task:
	default:
		q.logger.Error("task queue full, dropping task", zap.String("task", task.Name))
	}
}

// Run processes tasks until ctx is cancelled. Call as a goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.ch:
			q.process(ctx, task)
		}
	}
}

func (q *Queue) process(ctx context.Context, task Task) {
	var err error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		if err = task.Run(ctx); err == nil {
			return
		}
		q.logger.Warn("task attempt failed",
			zap.String("task", task.Name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < q.maxAttempts {
			wait := q.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
	q.logger.Error("task dropped after retries",
		zap.String("task", task.Name),
		zap.Int("attempts", q.maxAttempts),
		zap.Error(err),
	)
}
