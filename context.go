package nolead

import (
	"context"
	"log/slog"
	"time"
)

// Context identifies the task currently executing and is the only sanctioned
// way for a task body to reach other tasks. Every invocation gets its own
// Context, so concurrent fan-out branches attribute the dependency edges they
// record to the correct caller and never to a sibling.
type Context struct {
	pipeline    *Pipeline
	taskName    string
	executionID string
	params      Params
	logger      *slog.Logger

	StartTime time.Time
}

// TaskName returns the name of the task this context belongs to.
func (c *Context) TaskName() string { return c.taskName }

// ExecutionID returns the identifier of the top-level run this invocation
// belongs to. Nested and fanned-out invocations share their caller's ID.
func (c *Context) ExecutionID() string { return c.executionID }

// Param returns the named parameter from the merged (defaults plus
// call-time overrides) parameter set.
func (c *Context) Param(name string) (any, bool) {
	value, ok := c.params[name]
	return value, ok
}

// Params returns a copy of the merged parameter set.
func (c *Context) Params() Params {
	out := make(Params, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

// Logger returns a logger annotated with the task name and execution ID.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Uses declares a dependency on another task and returns its result. The
// edge is recorded against this context's task before the dependency runs,
// so the dependency graph grows from observed calls. overrides apply to this
// request only and key the memoized result.
func (c *Context) Uses(cc context.Context, ref Ref, overrides Params) (any, error) {
	if ref == nil {
		return nil, &TaskNotFoundError{}
	}
	c.pipeline.recordDependency(c.taskName, ref.refName())
	return c.pipeline.run(cc, c.executionID, ref, overrides)
}
