package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dativebase/old/pkg/observability"
)

const (
	// FomaQueueName drains compile/generate/estimate jobs: Phonology and
	// Morphology compiles, MorphemeLanguageModel estimation, and
	// MorphologicalParser generation.
	FomaQueueName = "FOMA_WORKER_Q"
	// ExportQueueName drains MorphologicalParser export-bundle jobs.
	ExportQueueName = "EXPORT_WORKER_Q"

	// workersPerQueue is the fixed number of long-lived goroutines
	// draining each queue.
	workersPerQueue = 2
	// queueCapacity is the bound enforced on each queue's channel,
	// giving the at-most-one-pending-build-per-resource contract: a
	// third concurrent enqueue on an already-full queue is rejected
	// rather than blocking the request handler.
	queueCapacity = 1
)

// Job is a unit of work submitted to a Queue. Name identifies the job
// for logging and metrics (mirroring the named-function-in-a-registry
// shape); Run performs the work and is expected to re-validate any
// attempt nonce it closed over before persisting results.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a capacity-1 channel of Jobs drained by workersPerQueue
// long-lived goroutines, following the REDESIGN guidance to replace the
// two capacity-1 queues/four threads with channels feeding worker
// goroutines while keeping enqueue non-blocking.
type Queue struct {
	name    string
	ch      chan Job
	logger  *observability.Logger
	metrics *observability.Metrics
}

func newQueue(name string, logger *observability.Logger, metrics *observability.Metrics) *Queue {
	return &Queue{
		name:    name,
		ch:      make(chan Job, queueCapacity),
		logger:  logger,
		metrics: metrics,
	}
}

// Enqueue submits job without blocking. It returns an error if the
// queue is already at capacity — the caller's attempt nonce has already
// been bumped unconditionally before this call, so a rejected enqueue
// simply means the resource's eventual build will be driven by whatever
// job is currently queued or running, which will observe the freshest
// nonce when it runs.
func (q *Queue) Enqueue(job Job) error {
	select {
	case q.ch <- job:
		if q.metrics != nil {
			q.metrics.WorkerQueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
		}
		return nil
	default:
		return fmt.Errorf("worker: queue %s is full", q.name)
	}
}

func (q *Queue) run(ctx context.Context, wg *sync.WaitGroup) {
	for i := 0; i < workersPerQueue; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.drain(ctx, id)
		}(i)
	}
}

func (q *Queue) drain(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.ch:
			if !ok {
				return
			}
			if q.metrics != nil {
				q.metrics.WorkerQueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
			}
			q.execute(ctx, workerID, job)
		}
	}
}

// execute runs job with panic recovery: on any exception (or panic),
// the worker logs the failure's class and message and continues,
// mirroring the teacher's worker's "log class+message, continue" loop.
func (q *Queue) execute(ctx context.Context, workerID int, job Job) {
	defer func() {
		if err := observability.MustRecover(recover()); err != nil {
			q.recordFailure(job, err)
			q.logger.WithFields(map[string]interface{}{
				"queue":  q.name,
				"worker": workerID,
				"job":    job.Name,
				"panic":  err.Error(),
			}).Errorf("worker job panicked: %s", debug.Stack())
		}
	}()

	if err := job.Run(ctx); err != nil {
		q.recordFailure(job, err)
		q.logger.WithFields(map[string]interface{}{
			"queue":  q.name,
			"worker": workerID,
			"job":    job.Name,
		}).WithError(err).Error("worker job failed")
		return
	}

	if q.metrics != nil {
		q.metrics.WorkerJobsTotal.WithLabelValues(q.name, "success").Inc()
	}
}

func (q *Queue) recordFailure(job Job, err error) {
	if q.metrics != nil {
		q.metrics.WorkerJobsTotal.WithLabelValues(q.name, "error").Inc()
	}
}

func (q *Queue) close() { close(q.ch) }

// Pool wires up the two named queues and their worker goroutines.
type Pool struct {
	Foma   *Queue
	Export *Queue

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool constructs a Pool without starting its workers; call Start to
// launch them against ctx.
func NewPool(logger *observability.Logger, metrics *observability.Metrics) *Pool {
	return &Pool{
		Foma:   newQueue(FomaQueueName, logger, metrics),
		Export: newQueue(ExportQueueName, logger, metrics),
	}
}

// Start launches both queues' worker goroutines. The pool stops its
// workers when ctx is cancelled or Shutdown is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.Foma.run(ctx, &p.wg)
	p.Export.run(ctx, &p.wg)
}

// Shutdown cancels outstanding workers and waits up to timeout for them
// to finish their current job.
func (p *Pool) Shutdown(timeout time.Duration) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("worker: shutdown timed out after %v", timeout)
	}
}
