package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"groscales/services"
)

// ErrQueueFull is returned by Enqueue when the backlog is at capacity.
var ErrQueueFull = errors.New("workflow queue is full")

// ErrDispatcherStopped is returned by Enqueue after shutdown began.
var ErrDispatcherStopped = errors.New("workflow dispatcher stopped")

type Runner interface {
	Run(ctx context.Context, leadID, workflowID uint) services.RunSummary
}

type RunJob struct {
	LeadID     uint
	WorkflowID uint
}

// WorkflowDispatcher runs workflow jobs in the background with bounded
// parallelism. Jobs live only in memory.
type WorkflowDispatcher struct {
	runner   Runner
	queue    chan RunJob
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	logger   logrus.FieldLogger
	onFinish func(services.RunSummary)

	mu      sync.RWMutex
	stopped bool
}

func NewWorkflowDispatcher(runner Runner, concurrency, queueSize int, logger logrus.FieldLogger) *WorkflowDispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &WorkflowDispatcher{
		runner: runner,
		queue:  make(chan RunJob, queueSize),
		sem:    semaphore.NewWeighted(int64(concurrency)),
		logger: logger.WithField("component", "workflow_dispatcher"),
	}
}

// OnFinish registers a callback invoked after every run. Set it before Start.
func (d *WorkflowDispatcher) OnFinish(fn func(services.RunSummary)) {
	d.onFinish = fn
}

func (d *WorkflowDispatcher) Enqueue(job RunJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start consumes the queue until ctx is cancelled, then waits for the
// runs already in flight. Those runs are detached from ctx and finish all
// of their steps; jobs still queued are dropped.
func (d *WorkflowDispatcher) Start(ctx context.Context) {
	d.logger.Info("Workflow dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return
		case job := <-d.queue:
			if err := d.sem.Acquire(ctx, 1); err != nil {
				d.logger.WithFields(logrus.Fields{
					"lead_id":     job.LeadID,
					"workflow_id": job.WorkflowID,
				}).Warn("Dropping workflow job during shutdown")
				d.shutdown()
				return
			}
			d.wg.Add(1)
			go d.execute(context.WithoutCancel(ctx), job)
		}
	}
}

func (d *WorkflowDispatcher) execute(ctx context.Context, job RunJob) {
	defer d.wg.Done()
	defer d.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"lead_id":     job.LeadID,
				"workflow_id": job.WorkflowID,
				"panic":       r,
			}).Error("Workflow run panicked")
		}
	}()

	summary := d.runner.Run(ctx, job.LeadID, job.WorkflowID)
	if d.onFinish != nil {
		d.onFinish(summary)
	}
}

func (d *WorkflowDispatcher) shutdown() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.logger.WithField("pending", len(d.queue)).Info("Workflow dispatcher shutting down...")
	d.wg.Wait()
}
