package nolead

import (
	"context"
	"reflect"
	"runtime"
)

// TaskFunc is the signature for task bodies. The context.Context carries
// cancellation from the caller; the *Context identifies the running task and
// is the only sanctioned way for a body to obtain other tasks' results.
type TaskFunc func(c context.Context, tc *Context) (any, error)

// Ref identifies a task, either by Name or by the *Task value returned from
// NewTask. Both forms resolve through the owning pipeline's registry.
type Ref interface {
	refName() string
}

// Name references a task by its registered name.
type Name string

func (n Name) refName() string { return string(n) }

// Task represents a single named, parameterized unit of work
type Task struct {
	name     string
	fn       TaskFunc
	funcName string
	defaults Params

	// deps is the structural dependency set, discovered lazily from Uses and
	// Parallel calls. Guarded by the owning pipeline's mutex.
	deps map[string]struct{}
}

// NewTask creates a new Task with the given name and body, applying any
// provided options. A nil body produces a registrable declaration that fails
// with *UnconfiguredTaskError when run.
func NewTask(name string, fn TaskFunc, options ...TaskOption) *Task {
	task := &Task{
		name:     name,
		fn:       fn,
		defaults: Params{},
		deps:     make(map[string]struct{}),
	}
	if fn != nil {
		task.funcName = runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	}

	for _, opt := range options {
		opt(task)
	}

	return task
}

func (t *Task) refName() string { return t.name }

// Name returns the task's registered name.
func (t *Task) Name() string { return t.name }

// TaskOption is a function that configures a Task
type TaskOption func(*Task)

// WithDefaults declares the task's parameter schema as a set of named
// defaults. Call-time overrides are merged over these, override wins per key.
func WithDefaults(defaults Params) TaskOption {
	return func(t *Task) {
		for k, v := range defaults {
			t.defaults[k] = v
		}
	}
}
