package combinator

import "fmt"

// VariableList is one named axis of a grid.
type VariableList struct {
	Name   string
	Values []any
}

// Grid produces the full Cartesian product of its variable lists in
// row-major order: the last declared list varies fastest. The order is
// deterministic given the declaration order of lists and values.
type Grid struct {
	lists []VariableList
	total int
}

// NewGrid creates a grid combinator. Duplicate names and empty value lists
// are configuration errors.
func NewGrid(lists []VariableList) (*Grid, error) {
	seen := make(map[string]bool, len(lists))
	total := 1
	for _, list := range lists {
		if list.Name == "" {
			return nil, fmt.Errorf("grid variable list has empty name")
		}
		if seen[list.Name] {
			return nil, fmt.Errorf("grid variable %q declared twice", list.Name)
		}
		seen[list.Name] = true
		if len(list.Values) == 0 {
			return nil, fmt.Errorf("grid variable %q has no values", list.Name)
		}
		total *= len(list.Values)
	}
	if len(lists) == 0 {
		total = 0
	}
	return &Grid{lists: lists, total: total}, nil
}

// Len returns the product of the list sizes.
func (g *Grid) Len() int {
	return g.total
}

// Sequence returns a fresh iterator over the product.
func (g *Grid) Sequence() *Sequence {
	return &Sequence{
		length: g.total,
		at:     g.combination,
	}
}

// combination derives the i-th variable set directly from the index, read
// as a mixed-radix number with the last list as the least significant
// digit.
func (g *Grid) combination(i int) map[string]any {
	set := make(map[string]any, len(g.lists))
	for li := len(g.lists) - 1; li >= 0; li-- {
		list := g.lists[li]
		set[list.Name] = list.Values[i%len(list.Values)]
		i /= len(list.Values)
	}
	return set
}
