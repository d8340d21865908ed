package environment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"convoke/internal/api"
	"convoke/internal/platform"
	"convoke/internal/require"
	"convoke/pkg/logging"
)

const logSubsystem = "EnvironmentPool"

// Pool holds every known environment and answers "is there an existing
// environment, or a to-be-created one from some platform, that satisfies
// this requirement?".
//
// The scan-then-claim of an existing environment is a single atomic step
// under the pool lock, so two scheduler workers can never claim the same
// free capacity. Platform estimates run outside the lock; creating one
// environment per concurrent requester is acceptable, handing the same
// environment to two requesters is not.
type Pool struct {
	mu           sync.Mutex
	environments []*Environment

	platforms *platform.Registry

	// recycleByDefault is the reuse policy stamped onto new environments.
	recycleByDefault bool

	created int
	failed  int

	stateChangeCb StateChangeCallback
}

// NewPool creates a pool backed by the given platform registry.
func NewPool(platforms *platform.Registry, recycleByDefault bool) *Pool {
	return &Pool{
		platforms:        platforms,
		recycleByDefault: recycleByDefault,
	}
}

// SetStateChangeCallback registers a callback propagated to every
// environment the pool creates.
func (p *Pool) SetStateChangeCallback(cb StateChangeCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stateChangeCb = cb
}

// FindOrRequest returns an environment satisfying the requirement, claimed
// for the given test. Existing environments in Prepared or Deployed state
// with free capacity are preferred, smallest first; otherwise each platform
// is asked for an estimate in priority order and the first satisfying one
// yields a new environment in state New. Platforms named in exclude are
// skipped (used after a permanent capability mismatch on retry).
//
// Returns an api.UnsatisfiableRequirementError when no existing environment
// matches and no platform can satisfy the requirement.
func (p *Pool) FindOrRequest(ctx context.Context, testID string, requirement require.EnvironmentRequirement, exclude map[string]bool) (*Environment, error) {
	if env := p.claimExisting(testID, requirement); env != nil {
		logging.Debug(logSubsystem, "test %s claimed existing environment %s", testID, env.ID())
		return env, nil
	}

	if requirement.Status == require.StatusDeployed {
		return nil, api.NewUnsatisfiableRequirementError(testID,
			"requirement demands an already deployed environment and none matches")
	}

	var reasons []string
	for _, plat := range p.platforms.InOrder() {
		if exclude[plat.Name()] {
			continue
		}
		estimated, err := estimateOnPlatform(ctx, plat, requirement)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", plat.Name(), err))
			continue
		}
		// Verify the estimate instead of trusting the adapter.
		if check := requirement.Check(estimated); !check.OK {
			reasons = append(reasons, fmt.Sprintf("%s: estimate rejected: %s", plat.Name(), check.Reason()))
			continue
		}

		env := New(plat.Name(), requirement, estimated, p.recycleByDefault)

		p.mu.Lock()
		env.SetStateChangeCallback(p.stateChangeCb)
		if !env.tryClaim(testID, len(requirement.Nodes)) {
			// A fresh environment is always claimable.
			p.mu.Unlock()
			return nil, fmt.Errorf("freshly created environment %s refused claim", env.ID())
		}
		p.environments = append(p.environments, env)
		p.created++
		p.mu.Unlock()

		logging.Info(logSubsystem, "created environment %s on platform %s for test %s", env.ID(), plat.Name(), testID)
		return env, nil
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no platforms registered")
	}
	return nil, api.NewUnsatisfiableRequirementError(testID, reasons...)
}

// claimExisting atomically scans and claims a matching live environment.
func (p *Pool) claimExisting(testID string, requirement require.EnvironmentRequirement) *Environment {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := make([]*Environment, 0, len(p.environments))
	for _, env := range p.environments {
		state := env.State()
		if state == StatePrepared || state == StateDeployed {
			candidates = append(candidates, env)
		}
	}
	// Prefer the smallest environment that fits, so large environments stay
	// free for demanding requirements.
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].MatchableCapabilities()) < len(candidates[j].MatchableCapabilities())
	})

	for _, env := range candidates {
		if requirement.Status == require.StatusDeployed && !env.HasDeployedNodes() {
			continue
		}
		if check := requirement.Check(env.MatchableCapabilities()); !check.OK {
			continue
		}
		if env.tryClaim(testID, len(requirement.Nodes)) {
			return env
		}
	}
	return nil
}

// Deploy drives a claimed fresh environment through Prepared, Deploying and
// Deployed. Failure moves the environment to Failed and returns an
// api.DeploymentError wrapping the platform's error.
func (p *Pool) Deploy(ctx context.Context, env *Environment) error {
	plat, ok := p.platforms.Get(env.PlatformName())
	if !ok {
		err := fmt.Errorf("platform %s is not registered", env.PlatformName())
		p.markFailed(env, err)
		return api.NewDeploymentError(env.PlatformName(), env.ID(), err)
	}

	if env.State() == StateNew {
		if err := env.Prepare(); err != nil {
			p.markFailed(env, err)
			return api.NewDeploymentError(plat.Name(), env.ID(), err)
		}
	}
	if err := env.SetState(StateDeploying); err != nil {
		p.markFailed(env, err)
		return api.NewDeploymentError(plat.Name(), env.ID(), err)
	}

	final, err := deployOnPlatform(ctx, plat, env)
	if err != nil {
		p.markFailed(env, err)
		return wrapDeploymentError(plat.Name(), env.ID(), err)
	}

	// The platform must deliver what it promised.
	if check := env.Requirement().Check(final); !check.OK {
		err := fmt.Errorf("deployed capability does not satisfy requirement: %s", check.Reason())
		p.markFailed(env, err)
		return api.NewDeploymentError(plat.Name(), env.ID(), err)
	}

	env.AttachNodes(final)
	if err := env.SetState(StateDeployed); err != nil {
		p.markFailed(env, err)
		return api.NewDeploymentError(plat.Name(), env.ID(), err)
	}
	logging.Info(logSubsystem, "environment %s deployed on %s", env.ID(), plat.Name())
	return nil
}

// deployOnPlatform isolates the adapter call so an adapter panic surfaces
// as a DeploymentError instead of killing a scheduler worker.
func deployOnPlatform(ctx context.Context, plat platform.Platform, env *Environment) (final []require.NodeCapability, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("platform panic: %v", r)
		}
	}()
	return plat.Deploy(ctx, env)
}

// estimateOnPlatform isolates the adapter call the same way; a panicking
// estimate reads as "this platform cannot satisfy the requirement".
func estimateOnPlatform(ctx context.Context, plat platform.Platform, requirement require.EnvironmentRequirement) (estimated []require.NodeCapability, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("platform panic: %v", r)
		}
	}()
	return plat.EstimateCapability(ctx, requirement)
}

// deleteOnPlatform isolates the adapter call during teardown, where a
// panic would otherwise abort the cleanup of every remaining environment.
func deleteOnPlatform(ctx context.Context, plat platform.Platform, env *Environment) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("platform panic: %v", r)
		}
	}()
	return plat.Delete(ctx, env)
}

// Connect transitions a deployed (or recycled) environment to Connected.
func (p *Pool) Connect(env *Environment) error {
	return env.SetState(StateConnected)
}

// Release decrements the environment's active-test count. When it reaches
// zero the environment either recycles back to Prepared for reuse or is
// torn down, according to its reuse policy.
func (p *Pool) Release(ctx context.Context, env *Environment, testID string) {
	remaining := env.releaseClaim(testID)
	if remaining > 0 {
		return
	}

	if env.State() == StateConnected && env.Recycle() {
		if err := env.SetState(StatePrepared); err == nil {
			logging.Debug(logSubsystem, "environment %s recycled", env.ID())
			return
		}
	}
	p.Teardown(ctx, env)
}

// Teardown deletes the environment on its platform. A Failed environment
// keeps its terminal state; a live one moves through Deleting to Deleted.
func (p *Pool) Teardown(ctx context.Context, env *Environment) {
	state := env.State()
	if state == StateDeleted || state == StateDeleting {
		return
	}

	if state != StateFailed {
		if err := env.SetState(StateDeleting); err != nil {
			logging.Warn(logSubsystem, "environment %s teardown from %s: %v", env.ID(), state, err)
			return
		}
	}

	if plat, ok := p.platforms.Get(env.PlatformName()); ok {
		if err := deleteOnPlatform(ctx, plat, env); err != nil {
			logging.Error(logSubsystem, err, "best-effort delete of environment %s failed", env.ID())
		}
	}

	if state != StateFailed {
		if err := env.SetState(StateDeleted); err != nil {
			logging.Warn(logSubsystem, "environment %s: %v", env.ID(), err)
		}
	}
	logging.Info(logSubsystem, "environment %s torn down (was %s)", env.ID(), state)
}

// TeardownAll tears down every environment still alive. Called when the
// scheduling loop drains.
func (p *Pool) TeardownAll(ctx context.Context) {
	p.mu.Lock()
	environments := make([]*Environment, len(p.environments))
	copy(environments, p.environments)
	p.mu.Unlock()

	for _, env := range environments {
		if env.State().IsAlive() {
			p.Teardown(ctx, env)
		}
	}
}

func (p *Pool) markFailed(env *Environment, cause error) {
	if err := env.Fail(cause); err != nil {
		logging.Warn(logSubsystem, "environment %s: %v", env.ID(), err)
		return
	}
	p.mu.Lock()
	p.failed++
	p.mu.Unlock()
}

// Created returns how many environments were requested from platforms.
func (p *Pool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Failed returns how many environments ended in the Failed state.
func (p *Pool) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// Environments returns a snapshot of all known environments.
func (p *Pool) Environments() []*Environment {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Environment, len(p.environments))
	copy(out, p.environments)
	return out
}

func wrapDeploymentError(platformName, environmentID string, err error) error {
	if api.IsDeployment(err) {
		return err
	}
	return api.NewDeploymentError(platformName, environmentID, err)
}
