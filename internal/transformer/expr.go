package transformer

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"convoke/internal/template"
)

// Expr derives new variables by evaluating expressions against the
// current set, for derivations plain templating cannot express, such as
// arithmetic on a disk size or mapping an artifact name onto a path.
type Expr struct {
	outputs map[string]*vm.Program
}

// NewExpr creates an expression transformer from output variable name to
// expression source. Expressions are compiled here, so a syntax error
// surfaces at configuration time, not per variable set.
func NewExpr(outputs map[string]string) (*Expr, error) {
	compiled := make(map[string]*vm.Program, len(outputs))
	for name, source := range outputs {
		program, err := expr.Compile(source, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		compiled[name] = program
	}
	return &Expr{outputs: compiled}, nil
}

func (e *Expr) Name() string { return "expr" }

// Apply evaluates every output expression against the incoming set.
// Like Template outputs, expressions see the incoming variables only.
func (e *Expr) Apply(vars map[string]any) (map[string]any, error) {
	out := template.CloneVars(vars)
	for name, program := range e.outputs {
		value, err := expr.Run(program, vars)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		out[name] = value
	}
	return out, nil
}
