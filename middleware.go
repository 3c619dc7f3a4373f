package nolead

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Middleware wraps a task body. Middleware registered with Pipeline.Use
// applies to every task, outermost first.
type Middleware func(next TaskFunc) TaskFunc

// Recovery returns a middleware that recovers from task body panics and
// converts them into ordinary task failures.
func Recovery() Middleware {
	return func(next TaskFunc) TaskFunc {
		return func(c context.Context, tc *Context) (result any, err error) {
			defer func() {
				if r := recover(); r != nil {
					stackTrace := debug.Stack()

					tc.Logger().Error("task panic recovered",
						"panic", fmt.Sprint(r),
						"stack_trace", string(stackTrace),
					)

					result = nil
					err = fmt.Errorf("task %s panic: %v", tc.TaskName(), r)
				}
			}()

			return next(c, tc)
		}
	}
}
