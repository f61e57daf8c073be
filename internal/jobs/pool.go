package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull  = errors.New("job queue full")
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Task is one unit of work run by a pool worker. ctx is cancelled only when a
// shutdown deadline passes.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed set of workers fed by a bounded queue. Submit never
// blocks: when the queue is full the task is refused with ErrQueueFull.
type Pool struct {
	workers int
	queue   chan Task

	mu      sync.RWMutex // guards closed and sends on queue
	closed  bool
	started bool

	active atomic.Int64
	group  *errgroup.Group
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPool creates a pool of workers goroutines with room for queueSize waiting tasks.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Cancelling ctx cancels the context passed to tasks.
// Calling Start more than once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	workCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.group = &errgroup.Group{}

	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			for task := range p.queue {
				p.run(workCtx, task)
			}
			return nil
		})
	}

	go func() {
		_ = p.group.Wait()
		close(p.done)
	}()
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Queued returns the number of tasks waiting for a worker.
func (p *Pool) Queued() int {
	return len(p.queue)
}

// Active returns the number of tasks currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Shutdown stops intake and waits for queued and running tasks to finish. If ctx
// ends first, task contexts are cancelled and Shutdown waits for the workers to
// drain before returning ctx.Err(). On a pool that was never started, queued
// tasks still run once, inline, with an already cancelled context.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	started := p.started
	p.mu.Unlock()

	if !started {
		p.drainCancelled()
		return nil
	}

	select {
	case <-p.done:
		p.cancel()
		return nil
	case <-ctx.Done():
		slog.Warn("shutdown deadline reached, cancelling running jobs",
			"active", p.Active(), "queued", p.Queued())
		p.cancel()
		<-p.done
		return ctx.Err()
	}
}

func (p *Pool) drainCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dropped := 0
	for task := range p.queue {
		p.run(ctx, task)
		dropped++
	}
	if dropped > 0 {
		slog.Warn("pool shut down before start, cancelled queued tasks", "tasks", dropped)
	}
}

func (p *Pool) run(ctx context.Context, task Task) {
	p.active.Add(1)
	defer p.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in pool task", "error", r)
		}
	}()

	task(ctx)
}
