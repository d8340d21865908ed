package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Engine substitutes {{ variable }} placeholders in run-document values.
// Both "{{ name }}" and "{{ .name }}" spellings are accepted, with or
// without inner spaces.
type Engine struct {
	pattern *regexp.Regexp
}

// New creates a template engine.
func New() *Engine {
	return &Engine{
		pattern: regexp.MustCompile(`\{\{\s*\.?([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`),
	}
}

// Render substitutes variables in a value, recursing into maps and slices.
// A string consisting of exactly one placeholder is replaced by the
// variable's typed value, so "{{ count }}" with count=3 renders to the int
// 3, not the string "3". Unknown variables are an error naming them all.
func (e *Engine) Render(value any, vars map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return e.renderString(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			rendered, err := e.Render(val, vars)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			rendered, err := e.Render(val, vars)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return value, nil
	}
}

func (e *Engine) renderString(s string, vars map[string]any) (any, error) {
	matches := e.pattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	// Whole-string placeholder keeps the variable's type.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		name := s[matches[0][2]:matches[0][3]]
		value, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("unknown variable: %s", name)
		}
		return value, nil
	}

	var missing []string
	var b strings.Builder
	last := 0
	for _, m := range matches {
		name := s[m[2]:m[3]]
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(stringify(value))
		last = m[1]
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown variables: %s", strings.Join(missing, ", "))
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// Variables returns the distinct placeholder names used by a value, in
// first-occurrence order.
func (e *Engine) Variables(value any) []string {
	seen := make(map[string]bool)
	var names []string
	e.collect(value, seen, &names)
	return names
}

func (e *Engine) collect(value any, seen map[string]bool, names *[]string) {
	switch v := value.(type) {
	case string:
		for _, m := range e.pattern.FindAllStringSubmatch(v, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				*names = append(*names, m[1])
			}
		}
	case map[string]any:
		for _, val := range v {
			e.collect(val, seen, names)
		}
	case []any:
		for _, val := range v {
			e.collect(val, seen, names)
		}
	}
}

// Validate reports an error naming every placeholder in value that vars
// does not define.
func (e *Engine) Validate(value any, vars map[string]any) error {
	var missing []string
	for _, name := range e.Variables(value) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("undefined variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
