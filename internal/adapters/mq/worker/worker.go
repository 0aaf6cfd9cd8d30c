// Package worker delivers queued observations to the configured sinks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

const defaultWorkerCount = 2

// Sink receives observations. Emit may be called from several workers at once.
type Sink interface {
	Name() string
	Emit(ctx context.Context, o model.Observation) error
}

// ErrBacklogDropped reports observations still queued when shutdown gave up.
var ErrBacklogDropped = errors.New("observation backlog dropped")

// Queue is the consumer side of the observation queue.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Observation
	Len() int
	Close() error
}

// InMemoryWorker drains a queue into sinks.
type InMemoryWorker struct {
	queue Queue
	sinks []Sink
	name  string

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker; call Run to start it.
func NewInMemoryWorker(queue Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  queue,
		sinks:  sinks,
		name:   "worker",
		done:   make(chan struct{}),
		logger: logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run delivers observations until the queue is drained or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for o := range w.queue.Dequeue(ctx) {
		if err := w.deliver(ctx, o); err != nil {
			w.logger.Error(ctx, "observation delivery failed",
				logger.String("worker", w.name),
				logger.String("player", o.Record.Player),
				logger.Error(err),
			)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// deliver hands o to every sink; one failing sink does not stop the others.
func (w *InMemoryWorker) deliver(ctx context.Context, o model.Observation) error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Emit(ctx, o); err != nil {
			metrics.RecordSinkEmit(s.Name(), "error")
			metrics.RecordErrorByComponent("sink", s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.RecordSinkEmit(s.Name(), "ok")
	}
	return errors.Join(errs...)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	cancel   context.CancelFunc
	stopOnce sync.Once
	logger   logger.Logger
}

// NewPool creates workerCount workers. Values below one use the default.
func NewPool(workerCount int, queue Queue, sinks []Sink) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, sinks, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start launches the workers. They are detached from ctx's cancellation so
// a stopping process can still drain the queue; Shutdown stops them.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it. If ctx
// ends first the workers are cancelled and the error wraps
// ErrBacklogDropped with the number of observations left behind.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	var err error
	for i, w := range p.workers {
		select {
		case <-w.Done():
			continue
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			err = fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
		break
	}

	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
			for _, w := range p.workers {
				<-w.Done()
			}
		}
		metrics.UpdateWorkerActiveCount(0)
	})

	if n := p.queue.Len(); n > 0 {
		metrics.RecordQueueDrops("shutdown", n)
		err = errors.Join(err, fmt.Errorf("%w: %d observations", ErrBacklogDropped, n))
	}
	return err
}
