package nolead

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestParallel_FanOutCompleteness verifies the result map contains exactly
// the fanned-out task names with their own results
func TestParallel_FanOutCompleteness(t *testing.T) {
	p := New()

	for _, spec := range []struct {
		name  string
		value int
	}{{"x", 1}, {"y", 2}, {"z", 3}} {
		value := spec.value
		assert.NoError(t, p.Register(NewTask(spec.name, func(c context.Context, tc *Context) (any, error) {
			return value, nil
		})))
	}
	report := NewTask("report", func(c context.Context, tc *Context) (any, error) {
		return tc.Parallel(c, Name("x"), Name("y"), Name("z"))
	})
	assert.NoError(t, p.Register(report))

	result, err := p.Run(context.Background(), report, nil)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 2, "z": 3}, result)
}

// TestParallel_RecordsEdgesAndGroup verifies fan-out membership is recorded
// against the calling task for introspection
func TestParallel_RecordsEdgesAndGroup(t *testing.T) {
	p := New()

	for _, name := range []string{"x", "y"} {
		assert.NoError(t, p.Register(NewTask(name, func(c context.Context, tc *Context) (any, error) {
			return name, nil
		})))
	}
	report := NewTask("report", func(c context.Context, tc *Context) (any, error) {
		return tc.Parallel(c, Name("x"), Name("y"))
	})
	assert.NoError(t, p.Register(report))

	_, err := p.Run(context.Background(), report, nil)
	assert.NoError(t, err)

	groups := p.ParallelGroups()
	assert.Equal(t, map[string][]string{"report": {"x", "y"}}, groups)

	for _, info := range p.Tasks() {
		if info.Name == "report" {
			assert.Equal(t, []string{"x", "y"}, info.DependsOn)
		}
	}
}

// TestParallel_TasksRunConcurrently verifies fan-out members overlap in time
// rather than running back to back
func TestParallel_TasksRunConcurrently(t *testing.T) {
	p := New()

	const members = 3
	var arrived atomic.Int32
	barrier := make(chan struct{})

	for _, name := range []string{"a", "b", "c"} {
		assert.NoError(t, p.Register(NewTask(name, func(c context.Context, tc *Context) (any, error) {
			if arrived.Add(1) == members {
				close(barrier)
			}
			select {
			case <-barrier:
				return name, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("siblings never overlapped")
			}
		})))
	}
	fan := NewTask("fan", func(c context.Context, tc *Context) (any, error) {
		return tc.Parallel(c, Name("a"), Name("b"), Name("c"))
	})
	assert.NoError(t, p.Register(fan))

	_, err := p.Run(context.Background(), fan, nil)
	assert.NoError(t, err)
}

// TestParallel_SiblingFailureFailsWhole verifies the fan-out surfaces the
// failure only after all started siblings finished, and returns no partial
// result map
func TestParallel_SiblingFailureFailsWhole(t *testing.T) {
	p := New()

	var completed atomic.Int32
	ok := func(c context.Context, tc *Context) (any, error) {
		time.Sleep(20 * time.Millisecond)
		completed.Add(1)
		return "ok", nil
	}
	assert.NoError(t, p.Register(NewTask("x", ok)))
	assert.NoError(t, p.Register(NewTask("z", ok)))
	cause := errors.New("y exploded")
	assert.NoError(t, p.Register(NewTask("y", func(c context.Context, tc *Context) (any, error) {
		return nil, cause
	})))

	fan := NewTask("fan", func(c context.Context, tc *Context) (any, error) {
		return tc.Parallel(c, Name("x"), Name("y"), Name("z"))
	})
	assert.NoError(t, p.Register(fan))

	_, err := p.Run(context.Background(), fan, nil)
	assert.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, int32(2), completed.Load(), "join barrier must wait for the surviving siblings")
}

// TestParallel_EdgeAttributionPerBranch verifies edges recorded inside one
// branch are attributed to that branch's task, never to a sibling or the
// fan-out caller
func TestParallel_EdgeAttributionPerBranch(t *testing.T) {
	p := New()

	for _, name := range []string{"leaf1", "leaf2"} {
		assert.NoError(t, p.Register(NewTask(name, func(c context.Context, tc *Context) (any, error) {
			return name, nil
		})))
	}
	assert.NoError(t, p.Register(NewTask("branch1", func(c context.Context, tc *Context) (any, error) {
		return tc.Uses(c, Name("leaf1"), nil)
	})))
	assert.NoError(t, p.Register(NewTask("branch2", func(c context.Context, tc *Context) (any, error) {
		return tc.Uses(c, Name("leaf2"), nil)
	})))
	caller := NewTask("caller", func(c context.Context, tc *Context) (any, error) {
		return tc.Parallel(c, Name("branch1"), Name("branch2"))
	})
	assert.NoError(t, p.Register(caller))

	_, err := p.Run(context.Background(), caller, nil)
	assert.NoError(t, err)

	deps := map[string][]string{}
	for _, info := range p.Tasks() {
		deps[info.Name] = info.DependsOn
	}
	assert.Equal(t, []string{"leaf1"}, deps["branch1"])
	assert.Equal(t, []string{"leaf2"}, deps["branch2"])
	assert.Equal(t, []string{"branch1", "branch2"}, deps["caller"])
	assert.Empty(t, deps["leaf1"])
	assert.Empty(t, deps["leaf2"])
}

// TestParallel_SharedDependencyExecutesOnce verifies two branches requesting
// the same dependency under the same key collapse into a single execution
func TestParallel_SharedDependencyExecutesOnce(t *testing.T) {
	p := New()

	var executions atomic.Int32
	assert.NoError(t, p.Register(NewTask("shared", func(c context.Context, tc *Context) (any, error) {
		executions.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "shared-result", nil
	})))
	assert.NoError(t, p.Register(NewTask("branch1", func(c context.Context, tc *Context) (any, error) {
		return tc.Uses(c, Name("shared"), nil)
	})))
	assert.NoError(t, p.Register(NewTask("branch2", func(c context.Context, tc *Context) (any, error) {
		return tc.Uses(c, Name("shared"), nil)
	})))
	fan := NewTask("fan", func(c context.Context, tc *Context) (any, error) {
		return tc.Parallel(c, Name("branch1"), Name("branch2"))
	})
	assert.NoError(t, p.Register(fan))

	result, err := p.Run(context.Background(), fan, nil)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"branch1": "shared-result", "branch2": "shared-result"}, result)
	assert.Equal(t, int32(1), executions.Load())
}

// TestRunParallel_SharedParamsNoRecords verifies the top-level fan-out path
// applies shared overrides and records no edges or groups
func TestRunParallel_SharedParamsNoRecords(t *testing.T) {
	p := New()

	for _, name := range []string{"east", "west"} {
		name := name
		assert.NoError(t, p.Register(NewTask(name, func(c context.Context, tc *Context) (any, error) {
			region, _ := tc.Param("region")
			return name + "-" + region.(string), nil
		}, WithDefaults(Params{"region": "local"}))))
	}

	result, err := p.RunParallel(context.Background(), []Ref{Name("east"), Name("west")}, Params{"region": "eu"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"east": "east-eu", "west": "west-eu"}, result)

	assert.Empty(t, p.ParallelGroups())
	for _, info := range p.Tasks() {
		assert.Empty(t, info.DependsOn)
	}
}

// TestRunParallel_IndependentChains verifies two disconnected task chains can
// be dispatched together and resolve their own dependencies
func TestRunParallel_IndependentChains(t *testing.T) {
	p := New()

	assert.NoError(t, p.Register(NewTask("leafA", func(c context.Context, tc *Context) (any, error) {
		return 1, nil
	})))
	assert.NoError(t, p.Register(NewTask("leafB", func(c context.Context, tc *Context) (any, error) {
		return 2, nil
	})))
	assert.NoError(t, p.Register(NewTask("chainA", func(c context.Context, tc *Context) (any, error) {
		value, err := tc.Uses(c, Name("leafA"), nil)
		if err != nil {
			return nil, err
		}
		return value.(int) * 10, nil
	})))
	assert.NoError(t, p.Register(NewTask("chainB", func(c context.Context, tc *Context) (any, error) {
		value, err := tc.Uses(c, Name("leafB"), nil)
		if err != nil {
			return nil, err
		}
		return value.(int) * 10, nil
	})))

	result, err := p.RunParallel(context.Background(), []Ref{Name("chainA"), Name("chainB")}, nil)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"chainA": 10, "chainB": 20}, result)

	deps := map[string][]string{}
	for _, info := range p.Tasks() {
		deps[info.Name] = info.DependsOn
	}
	assert.Equal(t, []string{"leafA"}, deps["chainA"])
	assert.Equal(t, []string{"leafB"}, deps["chainB"])
}

// TestRunParallel_UnknownMemberFailsFanOut verifies an unresolvable member
// fails the whole fan-out
func TestRunParallel_UnknownMemberFailsFanOut(t *testing.T) {
	p := New()

	assert.NoError(t, p.Register(NewTask("known", func(c context.Context, tc *Context) (any, error) {
		return 1, nil
	})))

	_, err := p.RunParallel(context.Background(), []Ref{Name("known"), Name("unknown")}, nil)
	assert.Error(t, err)

	var notFound *TaskNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unknown", notFound.Name)
}
