package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"credit-worker/internal/observability"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrQueueFull is returned by TrySubmit when no worker or queue slot is free.
	ErrQueueFull = errors.New("workerpool: queue is full")
	// ErrPoolClosed is returned for submissions after Shutdown.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Task is one unit of work. ctx is cancelled when the pool is shut down.
type Task func(ctx context.Context)

type Config struct {
	Name          string
	CoreWorkers   int
	MaxWorkers    int
	QueueCapacity int
	// IdleTimeout is how long a burst worker waits for work before exiting.
	IdleTimeout time.Duration
}

// Pool runs tasks on CoreWorkers long-lived goroutines fed by a bounded
// queue. When the queue is full it starts burst workers up to MaxWorkers;
// beyond that, Submit blocks until space frees up.
type Pool struct {
	name   string
	tasks  chan Task
	burst  *semaphore.Weighted
	idle   time.Duration
	logger *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	// closing is closed first on Shutdown so blocked submitters release mu.
	closing     chan struct{}
	closingOnce sync.Once

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	workers atomic.Int64
	active  atomic.Int64
}

func New(cfg Config) (*Pool, error) {
	if cfg.CoreWorkers < 1 {
		return nil, fmt.Errorf("workerpool: core workers must be >= 1, got %d", cfg.CoreWorkers)
	}
	if cfg.MaxWorkers < cfg.CoreWorkers {
		return nil, fmt.Errorf("workerpool: max workers (%d) must be >= core workers (%d)", cfg.MaxWorkers, cfg.CoreWorkers)
	}
	if cfg.QueueCapacity < 1 {
		return nil, fmt.Errorf("workerpool: queue capacity must be >= 1, got %d", cfg.QueueCapacity)
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = "workerpool"
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:    cfg.Name,
		tasks:   make(chan Task, cfg.QueueCapacity),
		burst:   semaphore.NewWeighted(int64(cfg.MaxWorkers - cfg.CoreWorkers)),
		idle:    cfg.IdleTimeout,
		logger:  observability.WithField("pool", cfg.Name),
		ctx:     ctx,
		cancel:  cancel,
		closing: make(chan struct{}),
	}

	for i := 0; i < cfg.CoreWorkers; i++ {
		p.wg.Add(1)
		p.workers.Add(1)
		go p.coreWorker()
	}

	p.logger.WithFields(logrus.Fields{
		"core_workers":   cfg.CoreWorkers,
		"max_workers":    cfg.MaxWorkers,
		"queue_capacity": cfg.QueueCapacity,
	}).Info("Worker pool started")

	return p, nil
}

// Submit enqueues task, blocking while the pool is saturated. It returns
// ctx.Err() if ctx ends first and ErrPoolClosed once Shutdown starts.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("workerpool: task is required")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.offer(task) {
		return nil
	}

	p.logger.WithField("queued", len(p.tasks)).Warn("Worker pool saturated, applying backpressure")

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closing:
		return ErrPoolClosed
	}
}

// TrySubmit enqueues task without blocking.
func (p *Pool) TrySubmit(task Task) error {
	if task == nil {
		return errors.New("workerpool: task is required")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.offer(task) {
		return nil
	}
	return ErrQueueFull
}

// offer queues task or hands it to a new burst worker. Callers hold p.mu.
func (p *Pool) offer(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
	}

	if !p.burst.TryAcquire(1) {
		return false
	}
	p.wg.Add(1)
	p.workers.Add(1)
	go p.burstWorker(task)
	return true
}

func (p *Pool) coreWorker() {
	defer p.wg.Done()
	defer p.workers.Add(-1)

	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) burstWorker(first Task) {
	defer p.wg.Done()
	defer p.workers.Add(-1)
	defer p.burst.Release(1)

	p.run(first)

	timer := time.NewTimer(p.idle)
	defer timer.Stop()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.idle)
		case <-timer.C:
			return
		}
	}
}

func (p *Pool) run(task Task) {
	p.active.Add(1)
	defer p.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Task panicked")
		}
	}()

	task(p.ctx)
}

// Shutdown stops intake and waits for queued and running tasks. If ctx ends
// first, running tasks are cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closingOnce.Do(func() { close(p.closing) })

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.logger.WithField("queued", len(p.tasks)).Info("Worker pool draining")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("Worker pool shutdown timed out, cancelling running tasks")
		return ctx.Err()
	}
}

// Running reports the number of live worker goroutines.
func (p *Pool) Running() int {
	return int(p.workers.Load())
}

// Active reports the number of tasks currently executing.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Queued reports the number of tasks waiting for a worker.
func (p *Pool) Queued() int {
	return len(p.tasks)
}
