package nolead

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Parallel runs the referenced tasks concurrently and returns their results
// keyed by task name. Each member is recorded as a dependency of the calling
// task, and the full member set is recorded as a parallel group for
// introspection. The call blocks until every member has finished; if any
// member fails, the first failure is returned after the join and no result
// map is surfaced.
func (c *Context) Parallel(cc context.Context, refs ...Ref) (map[string]any, error) {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == nil {
			return nil, &TaskNotFoundError{}
		}
		name := ref.refName()
		c.pipeline.recordDependency(c.taskName, name)
		names = append(names, name)
	}
	c.pipeline.recordParallelGroup(c.taskName, names)

	return c.pipeline.fanOut(cc, c.executionID, refs, nil)
}

// RunParallel executes the referenced tasks concurrently from outside any
// task body. No dependency edges or group records are created; shared is
// applied to every member as call-time overrides.
func (p *Pipeline) RunParallel(ctx context.Context, refs []Ref, shared Params) (map[string]any, error) {
	return p.fanOut(ctx, uuid.NewString(), refs, shared)
}

// fanOut is the join barrier shared by Parallel and RunParallel: every member
// runs through the ordinary engine path (so dependency resolution and the
// memoization store apply as usual) and the call returns only once all
// members have completed or failed.
func (p *Pipeline) fanOut(ctx context.Context, execID string, refs []Ref, shared Params) (map[string]any, error) {
	names := make([]string, len(refs))
	for i, ref := range refs {
		if ref == nil {
			return nil, &TaskNotFoundError{}
		}
		names[i] = ref.refName()
	}
	p.logger.Info("running tasks in parallel", "tasks", names, "execution_id", execID)

	results := make(map[string]any, len(refs))
	var mu sync.Mutex
	var g errgroup.Group
	for i, ref := range refs {
		name := names[i]
		ref := ref
		g.Go(func() error {
			value, err := p.run(ctx, execID, ref, shared)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = value
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("all parallel tasks completed", "tasks", names)
	return results, nil
}
