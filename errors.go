package nolead

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTaskName = errors.New("task name cannot be empty")
	ErrNilTask       = errors.New("task cannot be nil")
)

// TaskNotFoundError reports a task reference that resolves to no registered
// task.
type TaskNotFoundError struct {
	Name string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.Name)
}

// UnconfiguredTaskError reports a registered task with no body attached.
// Unreachable when tasks are built through NewTask with a non-nil function.
type UnconfiguredTaskError struct {
	Name string
}

func (e *UnconfiguredTaskError) Error() string {
	return fmt.Sprintf("task %q has no function attached", e.Name)
}

// TaskExecutionError wraps a failure raised inside a task body or inside one
// of its dependency resolutions. The original cause is reachable through
// errors.Is/As.
type TaskExecutionError struct {
	Task string
	Err  error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %q: %v", e.Task, e.Err)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }
