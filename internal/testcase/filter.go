package testcase

import (
	"convoke/internal/dependency"
)

// Filter selects cases by id or suite name. An empty include list selects
// everything; exclude wins over include.
type Filter struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Matches reports whether the filter selects the case.
func (f Filter) Matches(c *Case) bool {
	if contains(f.Exclude, c.ID) || contains(f.Exclude, c.Suite) {
		return false
	}
	if len(f.Include) == 0 {
		return true
	}
	return contains(f.Include, c.ID) || contains(f.Include, c.Suite)
}

// Apply splits resolved cases into selected and filtered-out. Order is
// preserved in both halves; the filtered-out half is reported Skipped so
// a run never silently loses a case.
func (f Filter) Apply(resolved []Resolved) (selected, filteredOut []Resolved) {
	for _, r := range resolved {
		if f.Matches(r.Case) {
			selected = append(selected, r)
		} else {
			filteredOut = append(filteredOut, r)
		}
	}
	return selected, filteredOut
}

// StrandedDependents maps each filtered-out case id to the selected cases
// that depend on it. Those dependents can never run; the run command warns
// about them up front instead of leaving a bare dependency skip in the
// summary.
func StrandedDependents(selected, filteredOut []Resolved) map[string][]string {
	graph := dependency.New()
	for _, r := range selected {
		_ = graph.Add(r.Case.ID, r.Case.DependsOn)
	}
	for _, r := range filteredOut {
		_ = graph.Add(r.Case.ID, r.Case.DependsOn)
	}

	selectedIDs := make(map[string]bool, len(selected))
	for _, r := range selected {
		selectedIDs[r.Case.ID] = true
	}

	stranded := make(map[string][]string)
	for _, r := range filteredOut {
		for _, dependent := range graph.Dependents(r.Case.ID) {
			if selectedIDs[dependent] {
				stranded[r.Case.ID] = append(stranded[r.Case.ID], dependent)
			}
		}
	}
	return stranded
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
