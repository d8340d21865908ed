package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"convoke/internal/api"
	"convoke/internal/environment"
	"convoke/internal/testcase"
	"convoke/pkg/logging"
)

const logSubsystem = "Scheduler"

// Options tunes a run.
type Options struct {
	// Parallelism caps concurrently running test cases. Zero means 1.
	Parallelism int

	// DefaultTimeout bounds a case that declares none.
	DefaultTimeout time.Duration

	// DefaultRetries is the deployment retry budget for cases declaring a
	// negative one.
	DefaultRetries int
}

func (o Options) withDefaults() Options {
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = time.Hour
	}
	if o.DefaultRetries < 0 {
		o.DefaultRetries = 0
	}
	return o
}

// ResultCallback observes each test result as it is recorded.
type ResultCallback func(api.TestResult)

// Scheduler drives test cases through environment acquisition, deployment
// and execution on a bounded worker pool.
type Scheduler struct {
	pool    *environment.Pool
	options Options

	mu       sync.Mutex
	results  []api.TestResult
	onResult ResultCallback
}

// New creates a scheduler over the given environment pool.
func New(pool *environment.Pool, options Options) *Scheduler {
	return &Scheduler{
		pool:    pool,
		options: options.withDefaults(),
	}
}

// SetResultCallback registers an observer invoked for every recorded
// result, in completion order.
func (s *Scheduler) SetResultCallback(cb ResultCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = cb
}

// Run executes the selected cases and records the filtered-out ones as
// Skipped. Cases run in ascending priority, ties broken by declaration
// order; up to Parallelism cases run at once, with cases waiting for
// their dependencies before starting. Run drains everything it is given
// even when individual cases fail; the returned error reports only
// scheduler-level breakage such as a canceled context.
func (s *Scheduler) Run(ctx context.Context, selected, filteredOut []testcase.Resolved) (*api.RunSummary, error) {
	start := time.Now()

	for _, r := range filteredOut {
		s.record(api.TestResult{
			TestID:  r.Case.ID,
			Suite:   r.Case.Suite,
			Status:  api.StatusSkipped,
			Message: api.SkipReasonFiltered,
		})
	}

	queue := make([]testcase.Resolved, len(selected))
	copy(queue, selected)
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Case.Priority != queue[j].Case.Priority {
			return queue[i].Case.Priority < queue[j].Case.Priority
		}
		return queue[i].Order < queue[j].Order
	})

	logging.Info(logSubsystem, "running %d cases (%d filtered out), parallelism %d",
		len(queue), len(filteredOut), s.options.Parallelism)

	err := s.runWaves(ctx, queue)

	// Drain-time teardown is best effort and survives a canceled run.
	s.pool.TeardownAll(context.WithoutCancel(ctx))

	summary := &api.RunSummary{
		Results:             s.Results(),
		EnvironmentsCreated: s.pool.Created(),
		EnvironmentsFailed:  s.pool.Failed(),
		Elapsed:             time.Since(start),
	}
	return summary, err
}

// runWaves executes the queue in dependency waves. A case is runnable
// once every case it depends on has completed; within a wave cases run
// concurrently up to the parallelism limit. A case whose dependency did
// not pass is skipped without acquiring an environment. Dependencies are
// validated at resolve time, so a wave making no progress can only mean
// a filtered-out dependency; the stranded cases are skipped.
func (s *Scheduler) runWaves(ctx context.Context, queue []testcase.Resolved) error {
	var statusMu sync.Mutex
	status := make(map[string]api.TestStatus, len(queue))

	remaining := queue
	for len(remaining) > 0 {
		var wave, blocked []testcase.Resolved
		for _, r := range remaining {
			if dependenciesDone(r.Case.DependsOn, status) {
				wave = append(wave, r)
			} else {
				blocked = append(blocked, r)
			}
		}

		if len(wave) == 0 {
			for _, r := range blocked {
				s.record(api.TestResult{
					TestID:  r.Case.ID,
					Suite:   r.Case.Suite,
					Status:  api.StatusSkipped,
					Message: fmt.Sprintf("%s: dependency never ran", api.SkipReasonDependency),
				})
			}
			return nil
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.options.Parallelism)
		for _, r := range wave {
			request := r
			group.Go(func() error {
				result := s.dispatch(groupCtx, request, status, &statusMu)
				statusMu.Lock()
				status[request.Case.ID] = result.Status
				statusMu.Unlock()
				s.record(result)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
		remaining = blocked
	}
	return nil
}

// dispatch decides whether the case still gets to run given its
// dependencies' outcomes and the run context.
func (s *Scheduler) dispatch(ctx context.Context, request testcase.Resolved, status map[string]api.TestStatus, statusMu *sync.Mutex) api.TestResult {
	c := request.Case

	if err := ctx.Err(); err != nil {
		return api.TestResult{
			TestID: c.ID, Suite: c.Suite,
			Status: api.StatusSkipped, Message: "run aborted",
		}
	}

	statusMu.Lock()
	var failedDep string
	for _, dep := range c.DependsOn {
		if status[dep] != api.StatusPassed {
			failedDep = dep
			break
		}
	}
	statusMu.Unlock()
	if failedDep != "" {
		return api.TestResult{
			TestID: c.ID, Suite: c.Suite,
			Status:  api.StatusSkipped,
			Message: fmt.Sprintf("%s: %s did not pass", api.SkipReasonDependency, failedDep),
		}
	}

	return s.execute(ctx, request)
}

func dependenciesDone(deps []string, status map[string]api.TestStatus) bool {
	for _, dep := range deps {
		if _, done := status[dep]; !done {
			return false
		}
	}
	return true
}

// Results returns the results recorded so far, in completion order.
func (s *Scheduler) Results() []api.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.TestResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Scheduler) record(result api.TestResult) {
	s.mu.Lock()
	s.results = append(s.results, result)
	cb := s.onResult
	s.mu.Unlock()

	logging.Info(logSubsystem, "case %s: %s (%s)", result.TestID, result.Status, result.Message)
	if cb != nil {
		cb(result)
	}
}
