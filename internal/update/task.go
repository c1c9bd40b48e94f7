package update

import (
	"context"
	"sync"

	"github.com/mvp-joe/msgforge/internal/catalog"
)

// Outcome is the single delivered result of an asynchronous update:
// either a completed Result or the error that ended the run.
type Outcome struct {
	Result *Result
	Err    error
}

// Task is one in-flight asynchronous update. The outcome is written
// exactly once to a buffered channel, so the runner never blocks on the
// consumer.
type Task struct {
	outcome chan Outcome
	cancel  context.CancelFunc

	once sync.Once
	got  Outcome
}

func start(ctx context.Context, run func(context.Context) (*Result, error)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{outcome: make(chan Outcome, 1), cancel: cancel}
	go func() {
		defer cancel()
		res, err := run(ctx)
		t.outcome <- Outcome{Result: res, Err: err}
	}()
	return t
}

// StartFromSources runs RunFromSources on its own goroutine.
func StartFromSources(ctx context.Context, cat *catalog.Catalog, opts Options) *Task {
	return start(ctx, func(ctx context.Context) (*Result, error) {
		return RunFromSources(ctx, cat, opts)
	})
}

// StartFromReference runs RunFromReference on its own goroutine.
func StartFromReference(ctx context.Context, cat *catalog.Catalog, refPath string, opts Options) *Task {
	return start(ctx, func(ctx context.Context) (*Result, error) {
		return RunFromReference(ctx, cat, refPath, opts)
	})
}

// Cancel requests cooperative cancellation. The run observes it at
// extractor boundaries and before the merge; an external tool already in
// flight finishes and its output is discarded. The outcome still arrives,
// carrying the cancellation error.
func (t *Task) Cancel() {
	t.cancel()
}

// Outcome returns the delivery channel, for callers that select against
// other events. Use either this channel or Wait, not both.
func (t *Task) Outcome() <-chan Outcome {
	return t.outcome
}

// Wait blocks until the run finishes and returns its result. Safe to call
// more than once.
func (t *Task) Wait() (*Result, error) {
	t.once.Do(func() { t.got = <-t.outcome })
	return t.got.Result, t.got.Err
}
