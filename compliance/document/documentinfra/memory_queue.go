package documentinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

type delayedJob struct {
	due  time.Time
	data []byte
}

// MemoryQueue is an in-process document.JobQueue for tests and
// `cae serve --memory`
type MemoryQueue struct {
	ready   chan []byte
	mu      sync.Mutex
	delayed []delayedJob
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{ready: make(chan []byte, capacity)}
}

var _ document.JobQueue = (*MemoryQueue)(nil)

func (q *MemoryQueue) Enqueue(ctx context.Context, jobID kernel.JobID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for job %s: %w", jobID, err)
	}
	select {
	case q.ready <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("enqueue job %s: queue full", jobID)
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data := <-q.ready:
		return data, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) EnqueueDelayed(_ context.Context, jobID kernel.JobID, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal delayed payload for job %s: %w", jobID, err)
	}
	q.mu.Lock()
	q.delayed = append(q.delayed, delayedJob{due: time.Now().Add(delay), data: data})
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) MoveDelayedToReady(ctx context.Context) (int, error) {
	now := time.Now()
	q.mu.Lock()
	var due [][]byte
	kept := q.delayed[:0]
	for _, j := range q.delayed {
		if j.due.After(now) {
			kept = append(kept, j)
		} else {
			due = append(due, j.data)
		}
	}
	q.delayed = kept
	q.mu.Unlock()

	for i, data := range due {
		select {
		case q.ready <- data:
		case <-ctx.Done():
			return i, ctx.Err()
		}
	}
	return len(due), nil
}

// Len returns ready and delayed counts
func (q *MemoryQueue) Len() (ready, delayed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready), len(q.delayed)
}

func (q *MemoryQueue) Stats(_ context.Context) (document.QueueStats, error) {
	ready, delayed := q.Len()
	return document.QueueStats{Ready: int64(ready), Delayed: int64(delayed)}, nil
}
