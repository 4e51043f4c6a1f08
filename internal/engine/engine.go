// Package engine implements the worker pool and the lifecycle
// controller built on top of it, adapted from a crawl-frontier-of-requests
// model to an action-queue-of-tasks model.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/handlers"
	"github.com/nyxglass/ao3dl/internal/observer"
	"github.com/nyxglass/ao3dl/internal/queue"
	"github.com/nyxglass/ao3dl/internal/retry"
)

// State is the engine's current lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Engine is the worker pool: a fixed number of goroutines pulling
// actions from one shared queue and dispatching them to handlers.
type Engine struct {
	queue        *queue.Queue
	handlerState *handlers.State
	retries      *retry.Table
	logger       *slog.Logger

	workerCount int
	wg          sync.WaitGroup
	lifecycle   atomic.Int32
}

// New builds an Engine around an already-constructed handler State.
// workerCount should come from config.Settings.WorkerCount.
func New(q *queue.Queue, st *handlers.State, workerCount int, logger *slog.Logger) *Engine {
	e := &Engine{
		queue:        q,
		handlerState: st,
		workerCount:  workerCount,
		logger:       logger.With("component", "engine"),
	}
	e.retries = retry.NewTable(func(a action.Action) {
		q.Push(a)
	})
	return e
}

// Retries exposes the retry table so the controller can cancel
// per-identifier timers on work removal.
func (e *Engine) Retries() *retry.Table { return e.retries }

// Start launches the worker pool. Worker count is 1 if threading is
// disabled or concurrency_limit == 1, else concurrency_limit, clamped
// to [1, 50].
func (e *Engine) Start() {
	if !e.lifecycle.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return
	}
	e.logger.Info("starting worker pool", "workers", e.workerCount)
	for i := 0; i < e.workerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
}

// Stop enqueues the sentinel and waits for every worker to exit, then
// cancels every armed retry timer. Clearing the work cache and active
// set is the controller's job, since the engine doesn't own them.
func (e *Engine) Stop() {
	if !e.lifecycle.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}
	e.queue.Push(action.Sentinel())
	e.wg.Wait()
	e.retries.Shutdown()
	e.lifecycle.Store(int32(StateStopped))
	e.logger.Info("engine stopped")
}

// worker pulls actions off the queue and dispatches them until it
// sees the sentinel.
func (e *Engine) worker(id int) {
	defer e.wg.Done()
	logger := e.logger.With("worker_id", id)
	ctx := context.Background()

	for {
		a, ok := e.queue.Pop(ctx)
		if !ok {
			return
		}

		if a.IsSentinel() {
			e.queue.Push(a) // wake siblings, then this worker exits
			return
		}

		if a.Kind.WorkScoped() && !e.handlerState.ActiveSet.Contains(a.WorkID) {
			continue // work id removed before dispatch; drop silently
		}

		identifier := a.Key().Identifier
		logger = logger.With("trace_id", a.TraceID)
		e.handlerState.Observers.FireActionBefore(identifier, a)

		handler, ok := handlers.Table[a.Kind]
		if !ok {
			logger.Error("no handler registered", "kind", a.Kind.String())
			continue
		}
		status, payload := handler(ctx, a, e.handlerState)

		if a.Kind.WorkScoped() && !e.handlerState.ActiveSet.Contains(a.WorkID) {
			continue // work id removed during dispatch; drop its result too
		}

		switch status {
		case action.StatusRetry:
			delay := e.retries.Schedule(a)
			payload.Error = fmt.Sprintf("Hit rate limit, trying again in %ds...", int(delay.Seconds()))
			logger.Warn("action scheduled for retry", "kind", a.Kind.String(), "identifier", identifier, "delay", delay)
		case action.StatusOK:
			e.retries.Cancel(a.Key())
		case action.StatusError:
			logger.Error("action failed", "kind", a.Kind.String(), "identifier", identifier, "error", payload.Error)
		}

		e.handlerState.Observers.FireActionAfter(identifier, a, status, payload)
	}
}

// observerRegistry is a small accessor used by the controller to wire
// callback registration without reaching into handlers.State's other
// fields.
func (e *Engine) observerRegistry() *observer.Registry {
	return e.handlerState.Observers
}
