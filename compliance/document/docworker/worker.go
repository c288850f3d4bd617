package docworker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/document/documentsrv"
	"github.com/Abraxas-365/cae/pkg/logx"
)

// Intervals tunes the pool loops. Zero values fall back to the defaults.
type Intervals struct {
	Poll    time.Duration // how long one dequeue blocks
	Delayed time.Duration // how often delayed retries are promoted
	Expiry  time.Duration // how often expired documents are swept; negative disables
	Backoff time.Duration // pause after a queue error
}

var DefaultIntervals = Intervals{
	Poll:    5 * time.Second,
	Delayed: 30 * time.Second,
	Expiry:  time.Hour,
	Backoff: time.Second,
}

// ValidationWorker runs document validation jobs off the queue
type ValidationWorker struct {
	service   *documentsrv.Service
	queue     document.JobQueue
	workers   int
	intervals Intervals
	wg        sync.WaitGroup
}

func NewValidationWorker(service *documentsrv.Service, queue document.JobQueue, workers int) *ValidationWorker {
	if workers < 1 {
		workers = 1
	}
	return &ValidationWorker{
		service:   service,
		queue:     queue,
		workers:   workers,
		intervals: DefaultIntervals,
	}
}

// WithIntervals overrides the loop timings; zero fields keep their defaults
func (w *ValidationWorker) WithIntervals(iv Intervals) *ValidationWorker {
	if iv.Poll > 0 {
		w.intervals.Poll = iv.Poll
	}
	if iv.Delayed > 0 {
		w.intervals.Delayed = iv.Delayed
	}
	if iv.Expiry != 0 {
		w.intervals.Expiry = iv.Expiry
	}
	if iv.Backoff > 0 {
		w.intervals.Backoff = iv.Backoff
	}
	return w
}

// Start launches the pool and returns. Cancel ctx and call Wait to stop.
func (w *ValidationWorker) Start(ctx context.Context) {
	logx.Infof("Starting %d document validation workers", w.workers)

	w.spawn(func() { w.moveDelayedJobs(ctx) })
	if w.intervals.Expiry > 0 {
		w.spawn(func() { w.sweepExpired(ctx) })
	}
	for i := 0; i < w.workers; i++ {
		id := i
		w.spawn(func() { w.processJobs(ctx, id) })
	}
}

// Wait blocks until every goroutine started by Start has returned
func (w *ValidationWorker) Wait() {
	w.wg.Wait()
}

// Run starts the pool and blocks until ctx is cancelled
func (w *ValidationWorker) Run(ctx context.Context) {
	w.Start(ctx)
	<-ctx.Done()
	w.Wait()
	logx.Info("Document validation workers stopped")
}

func (w *ValidationWorker) spawn(fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

func (w *ValidationWorker) processJobs(ctx context.Context, workerID int) {
	log := logx.With("worker", workerID)
	log.Debugf("Worker started")

	for {
		if ctx.Err() != nil {
			log.Debugf("Worker stopping")
			return
		}

		data, err := w.queue.Dequeue(ctx, w.intervals.Poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Errorf("Dequeue error: %v", err)
			w.pause(ctx)
			continue
		}
		if len(data) == 0 {
			continue
		}

		var job document.ValidationJob
		if err := json.Unmarshal(data, &job); err != nil {
			log.Errorf("Unmarshal error: %v (data: %s)", err, string(data))
			continue
		}

		log.Debugf("Processing job %s for document %s", job.ID, job.DocumentID)
		if err := w.service.ProcessJob(ctx, &job); err != nil {
			log.Warnf("Job %s failed: %v", job.ID, err)
		}
	}
}

func (w *ValidationWorker) pause(ctx context.Context) {
	t := time.NewTimer(w.intervals.Backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *ValidationWorker) moveDelayedJobs(ctx context.Context) {
	ticker := time.NewTicker(w.intervals.Delayed)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := w.queue.MoveDelayedToReady(ctx)
			if err != nil {
				logx.Errorf("Failed to move delayed jobs: %v", err)
			} else if count > 0 {
				logx.Infof("Moved %d delayed jobs to ready queue", count)
			}
		}
	}
}

func (w *ValidationWorker) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(w.intervals.Expiry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.service.SweepExpired(ctx, time.Now()); err != nil {
				logx.Errorf("Expiry sweep failed: %v", err)
			}
		}
	}
}
