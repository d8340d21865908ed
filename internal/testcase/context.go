package testcase

import "context"

type variablesKey struct{}

// WithVariables attaches the combination's variable set to the context a
// case body runs under.
func WithVariables(ctx context.Context, vars map[string]any) context.Context {
	return context.WithValue(ctx, variablesKey{}, vars)
}

// Variables returns the variable set for the current combination, or nil
// when the run has none.
func Variables(ctx context.Context) map[string]any {
	vars, _ := ctx.Value(variablesKey{}).(map[string]any)
	return vars
}
