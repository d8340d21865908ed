package dependency

import (
	"fmt"
	"sort"
	"strings"
)

// Graph records which test cases depend on which. It is not thread-safe;
// it is built once at resolve time and read-only afterwards.
type Graph struct {
	deps  map[string][]string
	order []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// Add records a case and its direct dependencies. Adding the same id
// twice is an error.
func (g *Graph) Add(id string, dependsOn []string) error {
	if _, exists := g.deps[id]; exists {
		return fmt.Errorf("case %s added twice", id)
	}
	copied := make([]string, len(dependsOn))
	copy(copied, dependsOn)
	g.deps[id] = copied
	g.order = append(g.order, id)
	return nil
}

// Dependencies returns the direct dependencies of a case.
func (g *Graph) Dependencies(id string) []string {
	deps := make([]string, len(g.deps[id]))
	copy(deps, g.deps[id])
	return deps
}

// Dependents returns every case that directly depends on the given one,
// in insertion order.
func (g *Graph) Dependents(id string) []string {
	var out []string
	for _, candidate := range g.order {
		for _, dep := range g.deps[candidate] {
			if dep == id {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}

// Validate checks that every dependency names a known case and that the
// graph is acyclic. Both are declaration errors surfaced before
// scheduling.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		for _, dep := range g.deps[id] {
			if _, ok := g.deps[dep]; !ok {
				return fmt.Errorf("case %s depends on unknown case %s", id, dep)
			}
			if dep == id {
				return fmt.Errorf("case %s depends on itself", id)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.order))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle: %s", strings.Join(append(path, id), " -> "))
		}
		state[id] = visiting
		deps := g.deps[id]
		sorted := make([]string, len(deps))
		copy(sorted, deps)
		sort.Strings(sorted)
		for _, dep := range sorted {
			if err := visit(dep, append(path, id)); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, id := range g.order {
		if err := visit(id, nil); err != nil {
			return err
		}
	}
	return nil
}
