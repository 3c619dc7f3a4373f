/*
Package nolead is a lightweight in-process task orchestration engine for
ETL-style scripts and report pipelines.

Tasks are named functions registered on a Pipeline. A task declares its
dependencies implicitly, by requesting their results at call time through its
execution Context; the engine runs the minimal dependency closure, memoizes
results per distinct parameter set, and can fan independent tasks out
concurrently.

Its core components include:
  - Pipeline: owns the task registry, the memoization store and all recorded
    dependency edges; multiple independent pipelines can coexist in a process.
  - Task: a named, parameterized unit of work with optional default parameters.
  - Context: per-invocation execution context through which a task body
    consumes other tasks' results (Uses) or fans a set of tasks out in
    parallel (Parallel).

Basic usage:

	p := nolead.New()

	fetch := nolead.NewTask("fetch", func(c context.Context, tc *nolead.Context) (any, error) {
		return []int{1, 2, 3, 4, 5}, nil
	})

	total := nolead.NewTask("total", func(c context.Context, tc *nolead.Context) (any, error) {
		data, err := tc.Uses(c, nolead.Name("fetch"), nil)
		if err != nil {
			return nil, err
		}
		sum := 0
		for _, n := range data.([]int) {
			sum += n
		}
		return sum, nil
	})

	p.Register(fetch)
	p.Register(total)
	result, err := p.Run(context.Background(), total, nil)
*/
package nolead
