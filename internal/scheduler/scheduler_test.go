package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convoke/internal/api"
	"convoke/internal/environment"
	"convoke/internal/platform"
	req "convoke/internal/require"
	"convoke/internal/search"
	"convoke/internal/testcase"
)

// scriptedPlatform implements platform.Platform with per-call scripting.
type scriptedPlatform struct {
	mu sync.Mutex

	name     string
	estimate []req.NodeCapability

	// failDeploys makes the first n Deploy calls fail.
	failDeploys int
	permanent   bool

	deployCalls int
	deleteCalls int

	// deleteCtxErrs records ctx.Err() as seen inside each Delete call.
	deleteCtxErrs []error
}

func (s *scriptedPlatform) Name() string { return s.name }

func (s *scriptedPlatform) EstimateCapability(ctx context.Context, requirement req.EnvironmentRequirement) ([]req.NodeCapability, error) {
	return s.estimate, nil
}

func (s *scriptedPlatform) Deploy(ctx context.Context, deployment platform.Deployment) ([]req.NodeCapability, error) {
	s.mu.Lock()
	s.deployCalls++
	call := s.deployCalls
	s.mu.Unlock()
	if call <= s.failDeploys {
		if s.permanent {
			return nil, &api.DeploymentError{
				Platform:      s.name,
				EnvironmentID: deployment.ID(),
				Permanent:     true,
				Err:           errors.New("size never available"),
			}
		}
		return nil, errors.New("allocation failed")
	}
	return deployment.RequestedCapabilities(), nil
}

func (s *scriptedPlatform) Delete(ctx context.Context, deployment platform.Deployment) error {
	s.mu.Lock()
	s.deleteCalls++
	s.deleteCtxErrs = append(s.deleteCtxErrs, ctx.Err())
	s.mu.Unlock()
	return nil
}

func (s *scriptedPlatform) SupportedFeatures() []string { return nil }

func newScriptedPlatform(name string, maxCores int) *scriptedPlatform {
	return &scriptedPlatform{
		name: name,
		estimate: []req.NodeCapability{{
			req.DimCoreCount: search.NewIntRange(1, maxCores),
		}},
	}
}

func newScheduler(t *testing.T, options Options, recycle bool, platforms ...*scriptedPlatform) (*Scheduler, *environment.Pool) {
	t.Helper()
	registry := platform.NewRegistry()
	for i, p := range platforms {
		require.NoError(t, registry.Register(p, i))
	}
	pool := environment.NewPool(registry, recycle)
	return New(pool, options), pool
}

func resolvedCase(c *testcase.Case, order int) testcase.Resolved {
	requirement := c.Requirement.Clone()
	if len(requirement.Nodes) == 0 {
		requirement.Nodes = []req.NodeRequirement{{}}
	}
	return testcase.Resolved{Case: c, Requirement: requirement, Order: order}
}

func passingCase(id, suite string) *testcase.Case {
	return &testcase.Case{
		ID:    id,
		Suite: suite,
		Run:   func(ctx context.Context, env *environment.Environment) error { return nil },
	}
}

func resultByID(t *testing.T, summary *api.RunSummary, id string) api.TestResult {
	t.Helper()
	for _, r := range summary.Results {
		if r.TestID == id {
			return r
		}
	}
	t.Fatalf("no result for %s", id)
	return api.TestResult{}
}

func TestRunHappyPath(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 2}, false, plat)

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{
			resolvedCase(passingCase("boot", "smoke"), 0),
			resolvedCase(passingCase("net", "smoke"), 1),
		}, nil)
	require.NoError(t, err)

	passed, failed, skipped := summary.Counts()
	assert.Equal(t, 2, passed)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)
	assert.Equal(t, summary.EnvironmentsCreated, 2)

	boot := resultByID(t, summary, "boot")
	assert.Equal(t, 1, boot.Attempts)
	assert.NotEmpty(t, boot.EnvironmentID)
}

func TestRunPriorityOrder(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, true, plat)

	var mu sync.Mutex
	var order []string
	record := func(id string) *testcase.Case {
		c := passingCase(id, "s")
		c.Run = func(ctx context.Context, env *environment.Environment) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		}
		return c
	}

	low := record("low")
	low.Priority = 5
	first := record("first")
	first.Priority = 1
	second := record("second")
	second.Priority = 1

	// Declaration order: low, first, second. Priority wins, then
	// declaration order breaks the tie.
	_, err := s.Run(context.Background(), []testcase.Resolved{
		resolvedCase(low, 0),
		resolvedCase(first, 1),
		resolvedCase(second, 2),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "low"}, order)
}

func TestRunUnsatisfiableSkips(t *testing.T) {
	plat := newScriptedPlatform("local", 4)
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, plat)

	demanding := passingCase("huge", "perf")
	demanding.Requirement = req.SingleNode(req.NodeRequirement{
		req.DimCoreCount: search.AtLeast(128),
	})

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(demanding, 0)}, nil)
	require.NoError(t, err)

	result := resultByID(t, summary, "huge")
	assert.Equal(t, api.StatusSkipped, result.Status)
	assert.Contains(t, result.Message, api.SkipReasonUnsatisfiable)
	assert.Equal(t, 1, result.Attempts)
	assert.Zero(t, summary.EnvironmentsCreated)
}

func TestRunRetryBudget(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	plat.failDeploys = 2
	s, pool := newScheduler(t, Options{Parallelism: 1}, false, plat)

	c := passingCase("flaky-deploy", "smoke")
	c.Retries = 2

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(c, 0)}, nil)
	require.NoError(t, err)

	result := resultByID(t, summary, "flaky-deploy")
	assert.Equal(t, api.StatusPassed, result.Status)
	assert.Equal(t, 3, result.Attempts)

	// Two environments failed and were torn down, a third succeeded.
	assert.Equal(t, 3, pool.Created())
	assert.Equal(t, 2, pool.Failed())
	assert.Equal(t, 2, summary.EnvironmentsFailed)
}

func TestRunRetryBudgetExhausted(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	plat.failDeploys = 10
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, plat)

	c := passingCase("doomed", "smoke")
	c.Retries = 1

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(c, 0)}, nil)
	require.NoError(t, err)

	result := resultByID(t, summary, "doomed")
	assert.Equal(t, api.StatusFailed, result.Status)
	assert.Equal(t, 2, result.Attempts)
	assert.Contains(t, result.Message, "deployment")
}

func TestRunPermanentMismatchExcludesPlatform(t *testing.T) {
	bad := newScriptedPlatform("bad", 16)
	bad.failDeploys = 10
	bad.permanent = true
	good := newScriptedPlatform("good", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, bad, good)

	c := passingCase("mover", "smoke")
	c.Retries = 1

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(c, 0)}, nil)
	require.NoError(t, err)

	// First attempt fails permanently on "bad"; the retry must land on
	// "good".
	result := resultByID(t, summary, "mover")
	assert.Equal(t, api.StatusPassed, result.Status)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1, good.deployCalls)
}

func TestRunTimeout(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, plat)

	c := passingCase("slow", "smoke")
	c.Timeout = 50 * time.Millisecond
	c.Run = func(ctx context.Context, env *environment.Environment) error {
		<-ctx.Done()
		return ctx.Err()
	}

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(c, 0)}, nil)
	require.NoError(t, err)

	result := resultByID(t, summary, "slow")
	assert.Equal(t, api.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "exceeded timeout")
	assert.Equal(t, 1, result.Attempts)
}

func TestRunTimeoutStillDeletesEnvironment(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, plat)

	c := passingCase("slow", "smoke")
	c.Timeout = 50 * time.Millisecond
	c.Run = func(ctx context.Context, env *environment.Environment) error {
		<-ctx.Done()
		return ctx.Err()
	}

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(c, 0)}, nil)
	require.NoError(t, err)
	assert.Equal(t, api.StatusFailed, resultByID(t, summary, "slow").Status)

	// The platform delete signal must arrive on a live context even though
	// the case deadline has long passed.
	plat.mu.Lock()
	defer plat.mu.Unlock()
	require.Equal(t, 1, plat.deleteCalls)
	assert.NoError(t, plat.deleteCtxErrs[0])
}

func TestRunFilteredOutReportedSkipped(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, plat)

	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(passingCase("kept", "s"), 0)},
		[]testcase.Resolved{resolvedCase(passingCase("dropped", "s"), 1)})
	require.NoError(t, err)

	dropped := resultByID(t, summary, "dropped")
	assert.Equal(t, api.StatusSkipped, dropped.Status)
	assert.Equal(t, api.SkipReasonFiltered, dropped.Message)
	assert.Equal(t, api.StatusPassed, resultByID(t, summary, "kept").Status)
}

func TestRunFailureIsIsolated(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, true, plat)

	failing := passingCase("failing", "s")
	failing.Run = func(ctx context.Context, env *environment.Environment) error {
		return errors.New("assertion failed: boot marker missing")
	}
	panicking := passingCase("panicking", "s")
	panicking.Run = func(ctx context.Context, env *environment.Environment) error {
		panic("nil dereference in test body")
	}

	summary, err := s.Run(context.Background(), []testcase.Resolved{
		resolvedCase(failing, 0),
		resolvedCase(panicking, 1),
		resolvedCase(passingCase("fine", "s"), 2),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, api.StatusFailed, resultByID(t, summary, "failing").Status)
	p := resultByID(t, summary, "panicking")
	assert.Equal(t, api.StatusFailed, p.Status)
	assert.Contains(t, p.Message, "panicked")
	assert.Equal(t, api.StatusPassed, resultByID(t, summary, "fine").Status)
}

func TestRunParallelClaimsNeverOverlap(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 4}, true, plat)

	var cases []testcase.Resolved
	for i, id := range []string{"a", "b", "c", "d"} {
		c := passingCase(id, "s")
		c.Run = func(ctx context.Context, env *environment.Environment) error {
			// The positional claim gives every running case exclusive use
			// of its environment's node 0.
			if env.ActiveTests() != 1 {
				return errors.New("environment shared between cases")
			}
			return nil
		}
		cases = append(cases, resolvedCase(c, i))
	}

	summary, err := s.Run(context.Background(), cases, nil)
	require.NoError(t, err)
	passed, failed, skipped := summary.Counts()
	assert.Equal(t, 4, passed)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)
}

func TestRunDependencyCascade(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 2}, true, plat)

	root := passingCase("root", "s")
	root.Run = func(ctx context.Context, env *environment.Environment) error {
		return errors.New("root broke")
	}
	child := passingCase("child", "s")
	child.DependsOn = []string{"root"}
	grandchild := passingCase("grandchild", "s")
	grandchild.DependsOn = []string{"child"}
	independent := passingCase("independent", "s")

	summary, err := s.Run(context.Background(), []testcase.Resolved{
		resolvedCase(root, 0),
		resolvedCase(child, 1),
		resolvedCase(grandchild, 2),
		resolvedCase(independent, 3),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, api.StatusFailed, resultByID(t, summary, "root").Status)

	child1 := resultByID(t, summary, "child")
	assert.Equal(t, api.StatusSkipped, child1.Status)
	assert.Contains(t, child1.Message, api.SkipReasonDependency)
	assert.Contains(t, child1.Message, "root")

	// The skip cascades: child did not pass either.
	gc := resultByID(t, summary, "grandchild")
	assert.Equal(t, api.StatusSkipped, gc.Status)
	assert.Contains(t, gc.Message, "child")

	assert.Equal(t, api.StatusPassed, resultByID(t, summary, "independent").Status)
}

func TestRunDependencyOrdering(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 4}, true, plat)

	var mu sync.Mutex
	var order []string
	tracked := func(id string, deps ...string) *testcase.Case {
		c := passingCase(id, "s")
		c.DependsOn = deps
		c.Run = func(ctx context.Context, env *environment.Environment) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		}
		return c
	}

	summary, err := s.Run(context.Background(), []testcase.Resolved{
		resolvedCase(tracked("setup"), 0),
		resolvedCase(tracked("verify", "setup"), 1),
		resolvedCase(tracked("cleanupcheck", "verify"), 2),
	}, nil)
	require.NoError(t, err)

	passed, _, _ := summary.Counts()
	assert.Equal(t, 3, passed)
	assert.Equal(t, []string{"setup", "verify", "cleanupcheck"}, order)
}

func TestRunDependencyOnFilteredCase(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, true, plat)

	orphan := passingCase("orphan", "s")
	orphan.DependsOn = []string{"absent"}

	// "absent" was filtered out of the run, so the dependency can never
	// complete.
	summary, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(orphan, 0)},
		[]testcase.Resolved{resolvedCase(passingCase("absent", "s"), 1)})
	require.NoError(t, err)

	result := resultByID(t, summary, "orphan")
	assert.Equal(t, api.StatusSkipped, result.Status)
	assert.Contains(t, result.Message, "dependency never ran")
}

func TestRunResultCallback(t *testing.T) {
	plat := newScriptedPlatform("local", 16)
	s, _ := newScheduler(t, Options{Parallelism: 1}, false, plat)

	var mu sync.Mutex
	var seen []string
	s.SetResultCallback(func(r api.TestResult) {
		mu.Lock()
		seen = append(seen, r.TestID)
		mu.Unlock()
	})

	_, err := s.Run(context.Background(),
		[]testcase.Resolved{resolvedCase(passingCase("one", "s"), 0)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, seen)
}
