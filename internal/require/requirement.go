package require

import (
	"fmt"
	"sort"
	"strings"

	"convoke/internal/api"
	"convoke/internal/search"
)

// Well-known resource dimension names. The model is open: platforms may
// advertise additional dimensions and requirements may constrain them, but
// these are the ones test metadata commonly uses.
const (
	DimCoreCount     = "core_count"
	DimMemoryMB      = "memory_mb"
	DimDataDiskCount = "data_disk_count"
	DimNicCount      = "nic_count"
	DimFeatures      = "features"
)

// NodeRequirement maps a resource dimension to the space of values a test
// accepts for one node. A dimension absent from the map is unconstrained.
// Requirements are treated as immutable once resolved for a run.
type NodeRequirement map[string]search.Space

// NodeCapability maps a resource dimension to what a platform or node
// offers. Estimated capabilities may still be ranges; final capabilities
// hold exact values only.
type NodeCapability map[string]search.Space

// Check reports whether the capability satisfies the requirement, checking
// every dimension either side names. Dimensions the requirement leaves out
// default to any; dimensions the requirement names must be present in the
// capability.
func (r NodeRequirement) Check(capability NodeCapability) search.CheckResult {
	result := search.Pass()
	for _, dim := range unionKeys(r, NodeRequirement(capability)) {
		sub := search.Check(r[dim], capability[dim])
		result.Merge(sub, dim)
	}
	return result
}

// Intersect narrows two requirement layers dimension by dimension. A
// disjoint dimension yields an IntersectionConflictError naming it.
func (r NodeRequirement) Intersect(other NodeRequirement) (NodeRequirement, error) {
	merged := NodeRequirement{}
	for _, dim := range unionKeys(r, other) {
		space, ok := search.Intersect(r[dim], other[dim])
		if !ok {
			return nil, api.NewIntersectionConflictError("", dim, spaceString(r[dim]), spaceString(other[dim]))
		}
		if _, isAny := space.(search.Any); isAny {
			continue
		}
		merged[dim] = space
	}
	return merged, nil
}

// Clone returns a shallow copy. Spaces are value types, so a shallow copy
// is enough to keep the original immutable.
func (r NodeRequirement) Clone() NodeRequirement {
	if r == nil {
		return nil
	}
	clone := make(NodeRequirement, len(r))
	for dim, space := range r {
		clone[dim] = space
	}
	return clone
}

func (r NodeRequirement) String() string {
	dims := make([]string, 0, len(r))
	for dim := range r {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	parts := make([]string, 0, len(dims))
	for _, dim := range dims {
		parts = append(parts, fmt.Sprintf("%s=%s", dim, r[dim]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// GenerateMin narrows an estimated capability to the minimum concrete
// capability that still satisfies the requirement. Platforms deploy this
// shape.
func (r NodeRequirement) GenerateMin(capability NodeCapability) (NodeCapability, error) {
	min := make(NodeCapability, len(capability))
	for _, dim := range unionKeys(r, NodeRequirement(capability)) {
		space, err := search.GenerateMin(r[dim], capability[dim])
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", dim, err)
		}
		min[dim] = space
	}
	return min, nil
}

// Clone returns a shallow copy of the capability.
func (c NodeCapability) Clone() NodeCapability {
	if c == nil {
		return nil
	}
	clone := make(NodeCapability, len(c))
	for dim, space := range c {
		clone[dim] = space
	}
	return clone
}

func (c NodeCapability) String() string {
	return NodeRequirement(c).String()
}

// EnvironmentStatusRequirement is the environment-level constraint on what
// lifecycle stage a matched environment must already be in.
type EnvironmentStatusRequirement string

const (
	// StatusAny accepts a fresh environment; the pool may create one.
	StatusAny EnvironmentStatusRequirement = ""

	// StatusDeployed restricts matching to environments that are already
	// deployed; the pool will not create a new environment for it.
	StatusDeployed EnvironmentStatusRequirement = "deployed"
)

// EnvironmentRequirement is the full requirement of one test case: an
// ordered list of node requirements plus environment-level constraints.
// Node order maps 1:1 to node order in a candidate environment.
type EnvironmentRequirement struct {
	Nodes  []NodeRequirement            `yaml:"nodes"`
	Status EnvironmentStatusRequirement `yaml:"status,omitempty"`
}

// Check reports whether the given per-node capabilities satisfy the
// requirement, node index by node index. A candidate with fewer nodes than
// the requirement fails; extra nodes are acceptable and stay unassigned.
func (e EnvironmentRequirement) Check(capabilities []NodeCapability) search.CheckResult {
	result := search.Pass()
	if len(capabilities) < len(e.Nodes) {
		result.AddReason(fmt.Sprintf("requirement needs %d nodes, capability offers %d", len(e.Nodes), len(capabilities)))
		return result
	}
	for i, node := range e.Nodes {
		sub := node.Check(capabilities[i])
		result.Merge(sub, fmt.Sprintf("node[%d]", i))
	}
	return result
}

// Intersect merges two requirement layers. Node lists merge positionally;
// the longer list wins, with overlapping positions intersected. The
// stricter status constraint wins.
func (e EnvironmentRequirement) Intersect(other EnvironmentRequirement) (EnvironmentRequirement, error) {
	merged := EnvironmentRequirement{Status: e.Status}
	if other.Status == StatusDeployed {
		merged.Status = StatusDeployed
	}

	longer, shorter := e.Nodes, other.Nodes
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	merged.Nodes = make([]NodeRequirement, len(longer))
	for i, node := range longer {
		if i < len(shorter) {
			combined, err := node.Intersect(shorter[i])
			if err != nil {
				return EnvironmentRequirement{}, err
			}
			merged.Nodes[i] = combined
			continue
		}
		merged.Nodes[i] = node.Clone()
	}
	return merged, nil
}

// Clone returns a copy safe to hold immutably.
func (e EnvironmentRequirement) Clone() EnvironmentRequirement {
	clone := EnvironmentRequirement{Status: e.Status}
	clone.Nodes = make([]NodeRequirement, len(e.Nodes))
	for i, node := range e.Nodes {
		clone.Nodes[i] = node.Clone()
	}
	return clone
}

func (e EnvironmentRequirement) String() string {
	parts := make([]string, len(e.Nodes))
	for i, node := range e.Nodes {
		parts[i] = node.String()
	}
	s := "[" + strings.Join(parts, ", ") + "]"
	if e.Status != StatusAny {
		s += fmt.Sprintf(" status=%s", e.Status)
	}
	return s
}

// SingleNode is a convenience constructor for the common one-node
// requirement.
func SingleNode(node NodeRequirement) EnvironmentRequirement {
	return EnvironmentRequirement{Nodes: []NodeRequirement{node}}
}

func unionKeys(a, b NodeRequirement) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for dim := range a {
		if !seen[dim] {
			seen[dim] = true
			keys = append(keys, dim)
		}
	}
	for dim := range b {
		if !seen[dim] {
			seen[dim] = true
			keys = append(keys, dim)
		}
	}
	sort.Strings(keys)
	return keys
}

func spaceString(s search.Space) string {
	if s == nil {
		return "any"
	}
	return s.String()
}
