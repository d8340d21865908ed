package transformer

import (
	"fmt"

	"convoke/internal/template"
)

// Rename moves variables to new names. The old name is removed; renaming
// a variable that does not exist is an error, as is clobbering an
// existing one.
type Rename struct {
	mapping map[string]string
}

// NewRename creates a rename transformer from old name to new name pairs.
func NewRename(mapping map[string]string) *Rename {
	return &Rename{mapping: mapping}
}

func (r *Rename) Name() string { return "rename" }

// Apply performs the renames on a copy of the set.
func (r *Rename) Apply(vars map[string]any) (map[string]any, error) {
	out := template.CloneVars(vars)
	for from, to := range r.mapping {
		value, ok := out[from]
		if !ok {
			return nil, fmt.Errorf("variable %q not present", from)
		}
		if _, exists := out[to]; exists && to != from {
			return nil, fmt.Errorf("variable %q already present, refusing to overwrite", to)
		}
		delete(out, from)
		out[to] = value
	}
	return out, nil
}
