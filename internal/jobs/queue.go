package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Queue hands created jobs to a fixed pool of worker goroutines. It replaces
// fire-and-forget kickoff: a trigger request returns as soon as the job row
// exists and the id is queued, and the job's outcome is observable on its row
// regardless of what happened to the triggering request.
type Queue struct {
	executor *Executor
	tasks    chan uuid.UUID
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// NewQueue creates a queue with the given worker count and buffer size.
func NewQueue(executor *Executor, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	q := &Queue{
		executor: executor,
		tasks:    make(chan uuid.UUID, buffer),
		group:    group,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			q.worker(ctx)
			return nil
		})
	}
	return q
}

// Enqueue queues a job id for execution without blocking. A full queue is
// reported to the caller so the job can be retried rather than silently lost.
func (q *Queue) Enqueue(jobID uuid.UUID) error {
	select {
	case q.tasks <- jobID:
		return nil
	default:
		return fmt.Errorf("job queue is full, job %s not scheduled", jobID)
	}
}

// Stop drains queued jobs and waits for in-flight ones to finish.
func (q *Queue) Stop() {
	close(q.tasks)
	_ = q.group.Wait()
	q.cancel()
}

func (q *Queue) worker(ctx context.Context) {
	for jobID := range q.tasks {
		if err := q.executor.Run(ctx, jobID); err != nil {
			// The failure is already recorded on the job row; the log line
			// is for the operator following along.
			log.Printf("[jobs] job %s failed: %v", jobID, err)
		} else {
			log.Printf("[jobs] job %s completed", jobID)
		}
	}
}
