// Package queue implements a FIFO, mutex-and-condvar-guarded list of
// pending actions shared by every worker: a priority heap adapted to
// plain FIFO order, with poll-based cancellation replaced by a
// condition-variable broadcast on ctx.Done.
package queue

import (
	"container/list"
	"context"
	"sync"

	"github.com/nyxglass/ao3dl/internal/action"
)

// Queue is a thread-safe FIFO of pending actions.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *list.List
	closed bool
}

// New returns an empty, open queue.
func New() *Queue {
	q := &Queue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an action to the tail. A no-op once the queue is
// closed.
func (q *Queue) Push(a action.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items.PushBack(a)
	q.cond.Signal()
}

// Pop removes and returns the action at the head, blocking until one
// is available, the queue is closed, or ctx is done. ok is false iff
// the queue was closed with nothing left to drain, or ctx ended first.
func (q *Queue) Pop(ctx context.Context) (a action.Action, ok bool) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		case <-done:
		}
	}()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if front := q.items.Front(); front != nil {
			q.items.Remove(front)
			return front.Value.(action.Action), true
		}
		if q.closed {
			return action.Action{}, false
		}
		if ctx.Err() != nil {
			return action.Action{}, false
		}
		q.cond.Wait()
	}
}

// TryPop performs a non-blocking dequeue. ok is false if the queue is
// currently empty.
func (q *Queue) TryPop() (a action.Action, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.items.Front()
	if front == nil {
		return action.Action{}, false
	}
	q.items.Remove(front)
	return front.Value.(action.Action), true
}

// Len reports the number of actions currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close marks the queue closed and wakes every blocked Pop. Already
// queued actions remain poppable until drained; only after the queue
// is both closed and empty do further Pops return ok=false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// IsClosed reports whether Close has been called.
func (q *Queue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drain removes and returns every remaining action, in FIFO order.
func (q *Queue) Drain() []action.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]action.Action, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(action.Action))
	}
	q.items.Init()
	return out
}
