package environment

import (
	"sync"

	"github.com/google/uuid"

	"convoke/internal/require"
	"convoke/pkg/logging"
)

// Environment is a concrete or to-be-provisioned set of nodes a test runs
// against. It is created when a requirement is first matched against a
// platform's estimate, mutated by the scheduler as deployment progresses,
// and deleted after its assigned tests complete or on fatal failure.
//
// The environment records which platform adapter created it by name only;
// it does not own the platform.
type Environment struct {
	mu sync.RWMutex

	id           string
	platformName string
	requirement  require.EnvironmentRequirement

	// estimated is the platform's offer, possibly still ranges.
	estimated []require.NodeCapability
	// requested is the minimum concrete shape accepted for deployment.
	requested []require.NodeCapability

	nodes []*Node

	state     State
	lastError error
	recycle   bool

	// assigned maps node index -> test id for nodes in active use.
	assigned    map[int]string
	activeTests int

	stateChangeCb StateChangeCallback
}

// New creates an environment in state New, bound to the named platform and
// holding its estimated capability.
func New(platformName string, requirement require.EnvironmentRequirement, estimated []require.NodeCapability, recycle bool) *Environment {
	return &Environment{
		id:           uuid.NewString()[:8],
		platformName: platformName,
		requirement:  requirement.Clone(),
		estimated:    cloneCapabilities(estimated),
		state:        StateNew,
		recycle:      recycle,
		assigned:     make(map[int]string),
	}
}

// ID returns the unique environment id.
func (e *Environment) ID() string {
	return e.id
}

// PlatformName returns the name of the platform adapter that created the
// environment.
func (e *Environment) PlatformName() string {
	return e.platformName
}

// State returns the current lifecycle state.
func (e *Environment) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// LastError returns the error recorded with the most recent Failed
// transition, if any.
func (e *Environment) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastError
}

// Recycle reports whether the environment returns to the pool for reuse
// after its tests complete.
func (e *Environment) Recycle() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recycle
}

// Requirement returns the requirement the environment was created for.
func (e *Environment) Requirement() require.EnvironmentRequirement {
	return e.requirement
}

// SetStateChangeCallback registers the callback invoked on state changes.
func (e *Environment) SetStateChangeCallback(cb StateChangeCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stateChangeCb = cb
}

// SetState transitions the environment to a new state. Illegal transitions
// return an InvalidTransitionError and leave the state unchanged. The state
// change callback runs outside the lock.
func (e *Environment) SetState(to State) error {
	return e.setState(to, nil)
}

// Fail transitions the environment to Failed, recording the causing error.
// Failed is terminal; failing an already failed or deleted environment is
// an error.
func (e *Environment) Fail(cause error) error {
	return e.setState(StateFailed, cause)
}

func (e *Environment) setState(to State, cause error) error {
	e.mu.Lock()
	from := e.state
	if !CanTransition(from, to) {
		e.mu.Unlock()
		return &InvalidTransitionError{EnvironmentID: e.id, From: from, To: to}
	}
	e.state = to
	if cause != nil {
		e.lastError = cause
	}
	cb := e.stateChangeCb
	e.mu.Unlock()

	logging.Debug("Environment", "environment %s: %s -> %s", e.id, from, to)
	if cb != nil {
		cb(e.id, from, to, cause)
	}
	return nil
}

// Prepare narrows the estimated capability to the minimum concrete shape
// meeting the requirement and transitions New -> Prepared. The result is
// what the platform deploys.
func (e *Environment) Prepare() error {
	e.mu.Lock()
	requested := make([]require.NodeCapability, len(e.estimated))
	for i, est := range e.estimated {
		var nodeReq require.NodeRequirement
		if i < len(e.requirement.Nodes) {
			nodeReq = e.requirement.Nodes[i]
		}
		min, err := nodeReq.GenerateMin(est)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		requested[i] = min
	}
	e.requested = requested
	e.mu.Unlock()

	return e.SetState(StatePrepared)
}

// RequestedCapabilities returns the minimum concrete per-node capabilities
// accepted for deployment. Implements platform.Deployment.
func (e *Environment) RequestedCapabilities() []require.NodeCapability {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneCapabilities(e.requested)
}

// AttachNodes records the final per-node capabilities after a successful
// deployment, creating the environment's nodes.
func (e *Environment) AttachNodes(final []require.NodeCapability) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = make([]*Node, len(final))
	for i, capability := range final {
		e.nodes[i] = newNode(i, capability)
	}
}

// Nodes returns the environment's nodes. Empty until deployed.
func (e *Environment) Nodes() []*Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	nodes := make([]*Node, len(e.nodes))
	copy(nodes, e.nodes)
	return nodes
}

// HasDeployedNodes reports whether final capabilities exist, which is how a
// recycled environment is told apart from a fresh one.
func (e *Environment) HasDeployedNodes() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.nodes) > 0
}

// MatchableCapabilities returns the per-node capabilities matching should
// check: final capabilities once deployed, the platform's estimate before.
func (e *Environment) MatchableCapabilities() []require.NodeCapability {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.nodes) > 0 {
		caps := make([]require.NodeCapability, len(e.nodes))
		for i, node := range e.nodes {
			caps[i] = node.Capability
		}
		return caps
	}
	return cloneCapabilities(e.estimated)
}

// tryClaim atomically assigns nodes 0..nodeCount-1 to the given test if all
// of them are free. Callers hold the pool lock; the environment lock keeps
// direct users consistent.
func (e *Environment) tryClaim(testID string, nodeCount int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < nodeCount; i++ {
		if _, busy := e.assigned[i]; busy {
			return false
		}
	}
	for i := 0; i < nodeCount; i++ {
		e.assigned[i] = testID
	}
	e.activeTests++
	return true
}

// releaseClaim frees every node assigned to the test and returns the number
// of tests still active.
func (e *Environment) releaseClaim(testID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	released := false
	for i, owner := range e.assigned {
		if owner == testID {
			delete(e.assigned, i)
			released = true
		}
	}
	if released && e.activeTests > 0 {
		e.activeTests--
	}
	return e.activeTests
}

// ActiveTests returns the number of tests currently assigned.
func (e *Environment) ActiveTests() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activeTests
}

func cloneCapabilities(caps []require.NodeCapability) []require.NodeCapability {
	out := make([]require.NodeCapability, len(caps))
	for i, c := range caps {
		out[i] = c.Clone()
	}
	return out
}
