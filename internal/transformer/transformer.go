package transformer

import (
	"fmt"

	"convoke/internal/combinator"
	"convoke/internal/template"
	"convoke/pkg/logging"
)

// Transformer derives or rewrites variables in one variable set. Apply
// must not mutate its input; it returns a new set.
type Transformer interface {
	Name() string
	Apply(vars map[string]any) (map[string]any, error)
}

// Chain applies transformers in declared order.
type Chain struct {
	transformers []Transformer
}

// NewChain creates a chain. A nil or empty chain passes sets through
// unchanged.
func NewChain(transformers ...Transformer) *Chain {
	return &Chain{transformers: transformers}
}

// Apply runs the chain over one variable set. An error names the failing
// transformer and leaves the input untouched.
func (c *Chain) Apply(vars map[string]any) (map[string]any, error) {
	current := template.CloneVars(vars)
	for _, t := range c.transformers {
		next, err := t.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %w", t.Name(), err)
		}
		current = next
	}
	return current, nil
}

// SetError records a variable set the chain rejected.
type SetError struct {
	// Index is the set's position in the combinator sequence.
	Index int
	Vars  map[string]any
	Err   error
}

func (e SetError) Error() string {
	return fmt.Sprintf("variable set %d: %v", e.Index, e.Err)
}

// Expand drains a combinator and applies the chain to every variable set.
// A transformer failure drops only the failing set; all surviving sets are
// returned together with the per-set errors.
func Expand(comb combinator.Combinator, chain *Chain) ([]map[string]any, []SetError) {
	var sets []map[string]any
	var failures []SetError

	seq := comb.Sequence()
	for i := 0; ; i++ {
		vars, ok := seq.Next()
		if !ok {
			break
		}
		transformed, err := chain.Apply(vars)
		if err != nil {
			logging.Warn("Transformer", "dropping variable set %d: %v", i, err)
			failures = append(failures, SetError{Index: i, Vars: vars, Err: err})
			continue
		}
		sets = append(sets, transformed)
	}
	return sets, failures
}
