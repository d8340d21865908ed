package transformer

import (
	"convoke/internal/template"
)

// Template derives new variables by rendering {{ var }} templates against
// the current set. Derived variables may overwrite existing ones, which is
// how a symbolic name is replaced by its resolved form.
type Template struct {
	engine  *template.Engine
	outputs map[string]string
}

// NewTemplate creates a template transformer from output variable name to
// template string.
func NewTemplate(outputs map[string]string) *Template {
	return &Template{
		engine:  template.New(),
		outputs: outputs,
	}
}

func (t *Template) Name() string { return "template" }

// Apply renders every output template against the incoming set. Outputs
// see the incoming variables only, not each other, so declaration order
// inside one transformer cannot matter.
func (t *Template) Apply(vars map[string]any) (map[string]any, error) {
	out := template.CloneVars(vars)
	for name, tmpl := range t.outputs {
		rendered, err := t.engine.Render(tmpl, vars)
		if err != nil {
			return nil, err
		}
		out[name] = rendered
	}
	return out, nil
}
