// Package worker runs prediction jobs pulled from a queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/attreval/internal/adapters/mq/queue"
	"github.com/okian/attreval/internal/domain/model"
	"github.com/okian/attreval/internal/domain/predict"
	"github.com/okian/attreval/pkg/logger"
	"github.com/okian/attreval/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Sink receives finished predictions. It must be safe for concurrent use.
type Sink interface {
	Deliver(ctx context.Context, p model.Prediction)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p model.Prediction)

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, p model.Prediction) { f(ctx, p) } //nolint:gocritic // hugeParam

// Worker processes jobs using the provided predictor.
type Worker interface {
	// Run starts the worker loop until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	predictor predict.Predictor
	sink      Sink
	name      string
	timeout   time.Duration

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p predict.Predictor, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		predictor: p,
		sink:      sink,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// process predicts one job. A predictor error yields an empty prediction
// carrying the error.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	pctx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := w.predictor.Predict(pctx, predict.Request{
		Index:      job.Index,
		ImageLink:  job.ImageLink,
		GroupID:    job.GroupID,
		EntityName: job.EntityName,
	})
	latency := time.Since(start).Milliseconds()
	metrics.RecordPredictionLatency(float64(latency))

	pred := model.Prediction{
		Seq:        job.Seq,
		Index:      job.Index,
		Value:      value,
		LatencyMs:  latency,
		EntityName: job.EntityName,
	}
	switch {
	case err != nil:
		pred.Value = ""
		pred.Err = err
		metrics.RecordPrediction("error")
		metrics.RecordErrorByComponent("worker", "predict_error")
		w.logger.Error(ctx, "prediction failed",
			logger.String("index", job.Index),
			logger.Error(err),
		)
	case value == "":
		metrics.RecordPrediction("empty")
	default:
		metrics.RecordPrediction("ok")
	}

	w.sink.Deliver(ctx, pred)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. A workerCount below 1 uses runtime.NumCPU().
// Options apply to every worker; names are assigned by the pool.
func NewPool(workerCount int, q Queue, p predict.Predictor, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	counting := SinkFunc(func(ctx context.Context, pred model.Prediction) { //nolint:gocritic // hugeParam
		pool.processed.Add(1)
		sink.Deliver(ctx, pred)
	})

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{}, opts...)
		workerOpts = append(workerOpts, WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, p, counting, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of predictions delivered so far.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is closed and drained, or until ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("wait for workers: %w", ctx.Err())
		}
	}
	return nil
}

// Shutdown closes the queue when it supports it and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for _, w := range p.workers {
		w.stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d shutdown: %w", i, shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
