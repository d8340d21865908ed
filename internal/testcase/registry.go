package testcase

import (
	"errors"
	"fmt"
	"sync"

	"convoke/internal/api"
	"convoke/internal/dependency"
	"convoke/internal/require"
	"convoke/pkg/logging"
)

// Registry holds declared test cases and per-suite requirement layers.
// Registration order is preserved; it is the scheduling tie-break.
type Registry struct {
	mu    sync.RWMutex
	cases []*Case
	byID  map[string]*Case

	suiteRequirements map[string]require.EnvironmentRequirement
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:              make(map[string]*Case),
		suiteRequirements: make(map[string]require.EnvironmentRequirement),
	}
}

// Register adds a case. IDs must be unique and the body non-nil.
func (r *Registry) Register(c *Case) error {
	if c == nil {
		return fmt.Errorf("cannot register nil case")
	}
	if c.ID == "" {
		return fmt.Errorf("case has empty id")
	}
	if c.Run == nil {
		return fmt.Errorf("case %s has no body", c.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return fmt.Errorf("case %s already registered", c.ID)
	}
	r.byID[c.ID] = c
	r.cases = append(r.cases, c)
	logging.Debug("TestRegistry", "registered case %s (suite %s)", c.ID, c.Suite)
	return nil
}

// SetSuiteRequirement declares a requirement layer shared by every case
// in the suite.
func (r *Registry) SetSuiteRequirement(suite string, requirement require.EnvironmentRequirement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suiteRequirements[suite] = requirement.Clone()
}

// Get returns the case with the given id.
func (r *Registry) Get(id string) (*Case, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// Cases returns all cases in declaration order.
func (r *Registry) Cases() []*Case {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Case, len(r.cases))
	copy(out, r.cases)
	return out
}

// Resolve layers the global requirement, the case's suite requirement and
// the case's own requirement into one effective requirement per case,
// narrowing at each layer. A conflict between layers surfaces as an
// api.IntersectionConflictError naming the case before anything is
// scheduled. Case dependencies are validated here too: unknown ids and
// cycles are resolve-time errors.
//
// A case whose layered requirement ends up with no nodes gets a single
// unconstrained node.
func (r *Registry) Resolve(global require.EnvironmentRequirement) ([]Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := dependency.New()
	for _, c := range r.cases {
		if err := graph.Add(c.ID, c.DependsOn); err != nil {
			return nil, err
		}
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	resolved := make([]Resolved, 0, len(r.cases))
	for order, c := range r.cases {
		effective := global.Clone()
		var err error

		if suiteReq, ok := r.suiteRequirements[c.Suite]; ok {
			effective, err = effective.Intersect(suiteReq)
			if err != nil {
				return nil, annotateConflict(err, c.ID)
			}
		}
		effective, err = effective.Intersect(c.Requirement)
		if err != nil {
			return nil, annotateConflict(err, c.ID)
		}

		if len(effective.Nodes) == 0 {
			effective.Nodes = []require.NodeRequirement{{}}
		}
		resolved = append(resolved, Resolved{
			Case:        c,
			Requirement: effective,
			Order:       order,
		})
	}
	return resolved, nil
}

func annotateConflict(err error, testID string) error {
	var conflict *api.IntersectionConflictError
	if errors.As(err, &conflict) {
		conflict.TestID = testID
		return conflict
	}
	return fmt.Errorf("case %s: %w", testID, err)
}
