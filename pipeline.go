package nolead

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Options holds configuration for a Pipeline
type Options struct {
	Logger  *slog.Logger
	Store   Store
	Metrics prometheus.Registerer
}

// Option is a function that configures a Pipeline
type Option func(*Options)

// WithLogger injects a custom slog logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithStore injects a custom memoization Store implementation.
func WithStore(store Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithMetrics registers task execution metrics (execution and cache-hit
// counters, duration histogram) on the given Prometheus registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Metrics = reg
	}
}

// Pipeline is the core orchestration component. It owns the task registry,
// the memoization store and all execution state recorded from observed runs.
// Pipelines are independent: resetting or mutating one never affects another.
type Pipeline struct {
	// mu serializes every mutation of the shared maps below, including the
	// dependency sets hanging off registered tasks.
	mu       sync.Mutex
	tasks    map[string]*Task
	executed map[string]struct{}
	groups   map[string][]string

	// flight collapses concurrent cache misses for one memoization key into
	// a single execution.
	flight singleflight.Group

	store       Store
	logger      *slog.Logger
	metrics     *metrics
	middlewares []Middleware
}

// New creates a new Pipeline with the provided options.
func New(opts ...Option) *Pipeline {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Store == nil {
		options.Store = newMemoryStore()
	}

	p := &Pipeline{
		tasks:    make(map[string]*Task),
		executed: make(map[string]struct{}),
		groups:   make(map[string][]string),
		store:    options.Store,
		logger:   options.Logger,
	}
	if options.Metrics != nil {
		p.metrics = newMetrics(options.Metrics)
	}
	return p
}

// Use registers middleware applied around every task body, outermost first.
// Middleware must be registered before the pipeline starts running tasks.
func (p *Pipeline) Use(mw ...Middleware) {
	p.middlewares = append(p.middlewares, mw...)
}

// Register adds a task to the pipeline. Registering a second task under the
// same name replaces the first; callers must not rely on both coexisting.
func (p *Pipeline) Register(task *Task) error {
	if task == nil {
		return ErrNilTask
	}
	if task.name == "" {
		return ErrEmptyTaskName
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.tasks[task.name]; exists {
		p.logger.Warn("replacing registered task", "task", task.name)
	}
	p.tasks[task.name] = task
	p.logger.Debug("registered task", "task", task.name)
	return nil
}

// resolve canonicalizes a task reference against the registry. Every lookup,
// whether by Name or by *Task value, goes through here.
func (p *Pipeline) resolve(ref Ref) (*Task, error) {
	if ref == nil {
		return nil, &TaskNotFoundError{}
	}
	name := ref.refName()

	p.mu.Lock()
	defer p.mu.Unlock()
	task, ok := p.tasks[name]
	if !ok {
		return nil, &TaskNotFoundError{Name: name}
	}
	return task, nil
}

// Reset clears all execution state: cached results, executed keys, parallel
// group records and the discovered dependency sets. Registered tasks are
// stable declarations and survive.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.Clear()
	p.executed = make(map[string]struct{})
	p.groups = make(map[string][]string)
	for _, task := range p.tasks {
		task.deps = make(map[string]struct{})
	}
	p.logger.Debug("pipeline execution state reset")
}

// TaskInfo is a read-only snapshot of a registered task.
type TaskInfo struct {
	Name      string
	FuncName  string
	DependsOn []string
}

// Tasks returns a snapshot of all registered tasks sorted by name, each with
// its current dependency set in sorted order.
func (p *Pipeline) Tasks() []TaskInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	infos := make([]TaskInfo, 0, len(p.tasks))
	for _, task := range p.tasks {
		deps := make([]string, 0, len(task.deps))
		for dep := range task.deps {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		infos = append(infos, TaskInfo{
			Name:      task.name,
			FuncName:  task.funcName,
			DependsOn: deps,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ParallelGroups returns a snapshot of the recorded parallel groups, keyed by
// the name of the task that fanned each group out.
func (p *Pipeline) ParallelGroups() map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	groups := make(map[string][]string, len(p.groups))
	for caller, members := range p.groups {
		groups[caller] = append([]string(nil), members...)
	}
	return groups
}

// CacheKeys returns the memoization keys currently held by the store, in
// their serialized "name(param=value,...)" form.
func (p *Pipeline) CacheKeys() []string {
	return p.store.Keys()
}

// ExecutedKeys returns the sorted set of memoization keys whose task body has
// run since the last reset.
func (p *Pipeline) ExecutedKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.executed))
	for k := range p.executed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// recordDependency adds an edge from task `from` to task `dep`, recording the
// structural fact that `from` requested a result from `dep`. Duplicate edges
// are no-ops; the parameters of the individual request are not retained.
func (p *Pipeline) recordDependency(from, dep string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[from]
	if !ok {
		return
	}
	if _, exists := task.deps[dep]; exists {
		return
	}
	task.deps[dep] = struct{}{}
	p.logger.Debug("recorded dependency", "task", from, "dependency", dep)
}

// recordParallelGroup records the member set fanned out by caller. A later
// fan-out from the same task replaces the record.
func (p *Pipeline) recordParallelGroup(caller string, members []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups[caller] = append([]string(nil), members...)
}
