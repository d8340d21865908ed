package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"convoke/internal/api"
	"convoke/internal/environment"
	"convoke/internal/testcase"
	"convoke/pkg/logging"
)

// execute drives one case end to end: acquire an environment, deploy and
// connect it, run the body, release. The whole flow shares one timeout; a
// deployment failure is retried against a fresh environment while the
// retry budget lasts, an unsatisfiable requirement skips immediately and a
// timeout fails without retry.
func (s *Scheduler) execute(ctx context.Context, request testcase.Resolved) api.TestResult {
	c := request.Case
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = s.options.DefaultTimeout
	}
	retries := c.Retries
	if retries < 0 {
		retries = s.options.DefaultRetries
	}

	start := time.Now()
	caseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Cleanup runs on its own context: a case that exceeded its deadline
	// must still signal the platform to delete, or the resource leaks.
	cleanupCtx := context.WithoutCancel(ctx)

	result := api.TestResult{TestID: c.ID, Suite: c.Suite}
	excluded := make(map[string]bool)
	var deployFailures []string

	for attempt := 1; attempt <= retries+1; attempt++ {
		result.Attempts = attempt

		env, err := s.pool.FindOrRequest(caseCtx, c.ID, request.Requirement, excluded)
		if err != nil {
			if timedOut(caseCtx) {
				return s.failTimeout(result, timeout, start)
			}
			if api.IsUnsatisfiableRequirement(err) {
				result.Status = api.StatusSkipped
				result.Message = fmt.Sprintf("%s: %v", api.SkipReasonUnsatisfiable, err)
				if len(deployFailures) > 0 {
					result.Message = fmt.Sprintf("%s (after deployment failures: %s)",
						result.Message, strings.Join(deployFailures, "; "))
				}
				result.Elapsed = time.Since(start)
				return result
			}
			result.Status = api.StatusFailed
			result.Message = err.Error()
			result.Elapsed = time.Since(start)
			return result
		}
		result.EnvironmentID = env.ID()

		if err := s.ready(caseCtx, env); err != nil {
			s.pool.Release(cleanupCtx, env, c.ID)
			if timedOut(caseCtx) {
				return s.failTimeout(result, timeout, start)
			}
			var deployErr *api.DeploymentError
			if errors.As(err, &deployErr) {
				deployFailures = append(deployFailures, deployErr.Error())
				if deployErr.Permanent {
					excluded[deployErr.Platform] = true
					logging.Warn(logSubsystem, "case %s: excluding platform %s after permanent mismatch",
						c.ID, deployErr.Platform)
				}
				if attempt <= retries {
					logging.Info(logSubsystem, "case %s: deployment attempt %d failed, retrying", c.ID, attempt)
					continue
				}
			}
			result.Status = api.StatusFailed
			result.Message = err.Error()
			result.Elapsed = time.Since(start)
			return result
		}

		runErr := runBody(caseCtx, c, env)
		s.pool.Release(cleanupCtx, env, c.ID)

		if timedOut(caseCtx) {
			return s.failTimeout(result, timeout, start)
		}
		if runErr != nil {
			result.Status = api.StatusFailed
			result.Message = runErr.Error()
		} else {
			result.Status = api.StatusPassed
		}
		result.Elapsed = time.Since(start)
		return result
	}

	// Unreachable: the loop always returns.
	result.Status = api.StatusFailed
	result.Message = "no attempt executed"
	result.Elapsed = time.Since(start)
	return result
}

// ready brings a freshly claimed environment to Connected. Fresh
// environments deploy first; recycled ones reconnect directly.
func (s *Scheduler) ready(ctx context.Context, env *environment.Environment) error {
	if env.State() == environment.StateNew {
		if err := s.pool.Deploy(ctx, env); err != nil {
			return err
		}
	}
	switch env.State() {
	case environment.StateConnected:
		return nil
	case environment.StateDeployed, environment.StatePrepared:
		return s.pool.Connect(env)
	default:
		return fmt.Errorf("environment %s in unexpected state %s", env.ID(), env.State())
	}
}

// runBody executes the case body, converting a panic into a failure so a
// broken test cannot take down a worker.
func runBody(ctx context.Context, c *testcase.Case, env *environment.Environment) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("case panicked: %v", r)
		}
	}()
	return c.Run(ctx, env)
}

func (s *Scheduler) failTimeout(result api.TestResult, timeout time.Duration, start time.Time) api.TestResult {
	err := api.NewTimeoutError(result.TestID, timeout)
	result.Status = api.StatusFailed
	result.Message = err.Error()
	result.Elapsed = time.Since(start)
	return result
}

func timedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}
