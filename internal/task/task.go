// Package task runs background work off the editing goroutine and hands the
// outcome back through a channel. A cancelled task reports a distinct
// cancelled outcome instead of success or failure.
package task

import (
	"context"
	"sync"
)

// Outcome says how a task ended.
type Outcome int

// Task outcomes.
const (
	Succeeded Outcome = iota
	Failed
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome of a finished task. Value is set only on success
// and Err only on failure.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

// Task is a running unit of background work.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result Result[T]
}

// Start runs fn on a new goroutine with a cancellable child of ctx.
func Start[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer cancel()
		v, err := fn(ctx)

		var r Result[T]
		switch {
		case ctx.Err() != nil:
			r.Outcome = Cancelled
		case err != nil:
			r.Outcome = Failed
			r.Err = err
		default:
			r.Value = v
		}

		t.mu.Lock()
		t.result = r
		t.mu.Unlock()
		close(t.done)
	}()
	return t
}

// Done is closed when the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Cancel asks the task to stop. A task that has not published its result
// yet ends Cancelled.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Result returns the result and whether the task has finished.
func (t *Task[T]) Result() (Result[T], bool) {
	select {
	case <-t.done:
	default:
		return Result[T]{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, true
}

// Wait blocks until the task finishes and returns its result.
func (t *Task[T]) Wait() Result[T] {
	<-t.done
	r, _ := t.Result()
	return r
}
