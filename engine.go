package nolead

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Run executes the referenced task and its recorded dependency closure,
// returning the task's result. Results are memoized per (task name, merged
// parameter set): a later Run with an equal key returns the cached value
// without re-executing the body or re-walking its dependencies.
//
// overrides are merged over the task's declared defaults, override wins per
// key; pass nil to run with defaults alone.
func (p *Pipeline) Run(ctx context.Context, ref Ref, overrides Params) (any, error) {
	return p.run(ctx, uuid.NewString(), ref, overrides)
}

func (p *Pipeline) run(ctx context.Context, execID string, ref Ref, overrides Params) (any, error) {
	task, err := p.resolve(ref)
	if err != nil {
		return nil, err
	}

	params := overrides.merged(task.defaults)
	key := memoKey(task.name, params)

	if value, ok := p.store.Get(key); ok {
		p.metrics.observeCacheHit(task.name)
		p.logger.Debug("returning cached result", "key", key)
		return value, nil
	}

	// Concurrent misses for the same key collapse into one execution; the
	// losers block until the winner finishes and share its outcome. A failed
	// execution is shared with its waiters but never cached, so the next
	// caller re-executes.
	value, err, _ := p.flight.Do(key, func() (any, error) {
		if value, ok := p.store.Get(key); ok {
			p.metrics.observeCacheHit(task.name)
			return value, nil
		}
		return p.execute(ctx, execID, task, params, key)
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Pipeline) execute(ctx context.Context, execID string, task *Task, params Params, key string) (any, error) {
	// Pre-resolve the dependency set recorded by earlier runs so every known
	// dependency has executed (and is cached) before the body runs.
	// Dependencies resolved here run with their default parameters; the
	// body's own Uses calls may still request the same task under different
	// overrides, producing a separately keyed cache entry. On a task's first
	// ever run the set is empty and discovery happens inside the body.
	for _, dep := range p.dependencySnapshot(task) {
		if _, err := p.run(ctx, execID, Name(dep), nil); err != nil {
			return nil, err
		}
	}

	if task.fn == nil {
		return nil, &UnconfiguredTaskError{Name: task.name}
	}

	logger := p.logger.With("task", task.name, "execution_id", execID)
	tc := &Context{
		pipeline:    p,
		taskName:    task.name,
		executionID: execID,
		params:      params,
		logger:      logger,
		StartTime:   time.Now(),
	}

	fn := task.fn
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		fn = p.middlewares[i](fn)
	}

	logger.Info("running task", "key", key)
	start := time.Now()
	result, err := fn(ctx, tc)
	if err != nil {
		p.metrics.observeFailure(task.name)
		logger.Error("task failed", "error", err)
		return nil, &TaskExecutionError{Task: task.name, Err: err}
	}

	p.store.Set(key, result)
	p.mu.Lock()
	p.executed[key] = struct{}{}
	p.mu.Unlock()

	p.metrics.observeExecution(task.name, time.Since(start))
	logger.Info("completed task", "key", key)
	return result, nil
}

// dependencySnapshot returns a sorted copy of the task's current dependency
// set. The recorded set is unordered; sorting keeps pre-resolution
// deterministic across runs.
func (p *Pipeline) dependencySnapshot(task *Task) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	deps := make([]string, 0, len(task.deps))
	for dep := range task.deps {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}
