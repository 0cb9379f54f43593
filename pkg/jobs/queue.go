package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work.
type Task struct {
	ID       string
	Kind     string
	Payload  interface{}
	Enqueued time.Time
}

// TaskFunc executes a task. A non-nil error triggers a retry.
type TaskFunc func(context.Context, Task) error

// Options tunes the worker pool.
type Options struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (o *Options) fill() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.BufferSize <= 0 {
		o.BufferSize = o.Workers * 4
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Queue runs tasks on a fixed pool of goroutines. Failed tasks are retried
// in place by the worker that picked them up, so ordering within a worker is
// preserved and a flapping task cannot flood the channel.
type Queue struct {
	name string
	run  TaskFunc
	opts Options

	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewQueue builds the pool. Call Start before Enqueue.
func NewQueue(name string, run TaskFunc, opts Options) *Queue {
	opts.fill()
	return &Queue{
		name:  name,
		run:   run,
		opts:  opts,
		tasks: make(chan Task, opts.BufferSize),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.opts.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.opts.Workers))
}

// Stop signals the workers and waits for in-flight tasks to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.opts.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a task to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(t Task) error {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()
	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.tasks <- t:
		return nil
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case t := <-q.tasks:
			q.attempt(t)
		}
	}
}

func (q *Queue) attempt(t Task) {
	var err error
	for try := 1; try <= q.opts.MaxRetries; try++ {
		if err = q.run(q.ctx, t); err == nil {
			return
		}
		q.opts.Logger.Warn("task failed",
			zap.String("queue", q.name),
			zap.String("task_id", t.ID),
			zap.String("kind", t.Kind),
			zap.Int("attempt", try),
			zap.Error(err),
		)
		select {
		case <-q.ctx.Done():
			return
		case <-time.After(q.opts.RetryDelay):
		}
	}
	q.opts.Logger.Error("task dropped after retries",
		zap.String("queue", q.name),
		zap.String("task_id", t.ID),
		zap.String("kind", t.Kind),
		zap.Error(err),
	)
}
