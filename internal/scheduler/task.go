package scheduler

import (
	"context"
	"fmt"
	"sync"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

// Handler performs one task. It owns whatever payload it closes over.
type Handler func(ctx context.Context) error

// Task is an independent unit of work within one target's parallel phase.
type Task struct {
	Name string
	Run  Handler
}

// ErrorKind separates expected program failures from everything else.
type ErrorKind string

const (
	// KindDomain marks classified errors raised by plugins or the tools they drive.
	KindDomain ErrorKind = "domain"
	// KindUnexpected marks unclassified errors and recovered panics.
	KindUnexpected ErrorKind = "unexpected"
)

// TaskError records the failure of a single task.
type TaskError struct {
	Task  string
	Kind  ErrorKind
	Err   error
	Stack []byte
}

func (e *TaskError) Error() string {
	if e.Kind == KindDomain {
		return e.Err.Error()
	}
	if len(e.Stack) > 0 {
		return fmt.Sprintf("unexpected failure in task %s: %v\n%s", e.Task, e.Err, e.Stack)
	}
	return fmt.Sprintf("unexpected failure in task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

func newTaskError(task string, err error, stack []byte) *TaskError {
	kind := KindUnexpected
	if stack == nil && ferrors.IsClassified(err) {
		kind = KindDomain
	}
	return &TaskError{Task: task, Kind: kind, Err: err, Stack: stack}
}

// Batch is the shared state of one parallel phase. A single mutex guards the
// remaining tasks, the completed counter and the captured errors.
type Batch struct {
	mu        sync.Mutex
	tasks     []Task
	completed int
	total     int
	errors    []*TaskError
}

// NewBatch creates a batch over tasks. The slice is copied.
func NewBatch(tasks []Task) *Batch {
	return &Batch{
		tasks: append([]Task(nil), tasks...),
		total: len(tasks),
	}
}

// Total returns the number of tasks the batch started with.
func (b *Batch) Total() int {
	return b.total
}

// Completed returns the number of tasks that finished successfully.
func (b *Batch) Completed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

// Remaining returns the number of tasks never dispatched.
func (b *Batch) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

// Errors returns a copy of the captured task errors in capture order.
func (b *Batch) Errors() []*TaskError {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*TaskError(nil), b.errors...)
}

// Failed reports whether any task failed.
func (b *Batch) Failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.errors) > 0
}
