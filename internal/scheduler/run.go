package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/scanbinder/internal/logfields"
)

// ProgressFunc receives the completed fraction of a batch. It is called with
// the batch lock held and must not call back into the batch.
type ProgressFunc func(fraction float64)

// Run executes the batch with the given number of workers and returns once
// every worker has exited. Values below 1 are treated as 1.
//
// Tasks are dispatched in order. After the first failure no further task is
// dispatched; tasks already running finish and their results are recorded.
// Cancelling ctx stops dispatch the same way and Run returns ctx.Err().
func Run(ctx context.Context, b *Batch, workers int, progress ProgressFunc) error {
	if workers < 1 {
		workers = 1
	}
	if progress == nil {
		progress = func(float64) {}
	}

	b.mu.Lock()
	empty := b.total == 0
	if empty {
		progress(1)
	}
	b.mu.Unlock()
	if empty {
		return ctx.Err()
	}

	slog.Debug("Dispatching tasks", logfields.Tasks(b.total), logfields.Workers(workers))

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			b.work(ctx, progress)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (b *Batch) next(ctx context.Context) (Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.errors) > 0 || len(b.tasks) == 0 || ctx.Err() != nil {
		return Task{}, false
	}
	t := b.tasks[0]
	b.tasks[0] = Task{}
	b.tasks = b.tasks[1:]
	return t, true
}

func (b *Batch) work(ctx context.Context, progress ProgressFunc) {
	for {
		t, ok := b.next(ctx)
		if !ok {
			return
		}

		if terr := execute(ctx, t); terr != nil {
			slog.Debug("Task failed", logfields.Task(t.Name), slog.String("kind", string(terr.Kind)), logfields.Error(terr.Err))
			b.mu.Lock()
			b.errors = append(b.errors, terr)
			b.mu.Unlock()
			return
		}

		b.mu.Lock()
		b.completed++
		progress(float64(b.completed) / float64(max(b.total, 1)))
		b.mu.Unlock()
	}
}

func execute(ctx context.Context, t Task) (terr *TaskError) {
	defer func() {
		if r := recover(); r != nil {
			terr = newTaskError(t.Name, fmt.Errorf("panic: %v", r), debug.Stack())
		}
	}()
	if t.Run == nil {
		return newTaskError(t.Name, fmt.Errorf("task %s has no handler", t.Name), nil)
	}
	if err := t.Run(ctx); err != nil {
		return newTaskError(t.Name, err, nil)
	}
	return nil
}
