// Package importer runs the background import pipeline: queued jobs are
// picked up one at a time, streamed, validated, batched to Core, and closed
// out with an error report.
package importer

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"debtorbatch/internal/core"
)

// Task is one queued import run. Auth is captured at upload time so the
// worker can act on the caller's behalf against Core.
type Task struct {
	JobID         uuid.UUID
	Auth          core.AuthContext
	CorrelationID string
}

// Queue is an unbounded FIFO of import tasks. Enqueue never blocks; Dequeue
// blocks until a task arrives or the context ends.
type Queue struct {
	mu    sync.Mutex
	items []Task
	wake  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends a task.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	q.items = append(q.items, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest task, blocking until one is
// available. Returns the context error if ctx ends first.
func (q *Queue) Dequeue(ctx context.Context) (Task, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			task := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			// Keep the wake signal set while tasks remain, so a single
			// signal never strands a backlog.
			if remaining > 0 {
				select {
				case q.wake <- struct{}{}:
				default:
				}
			}
			return task, nil
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return Task{}, ctx.Err()
		}
	}
}

// Len reports the current backlog depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
