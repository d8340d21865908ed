package search

import (
	"fmt"
	"math"
	"strings"
)

// Unbounded marks an IntRange with no upper limit.
const Unbounded = math.MaxInt

// Space is an acceptable set of values for one resource dimension. The same
// types serve as requirements (what a test needs) and as capabilities (what
// a platform offers); Check and Intersect interpret the receiver as a
// requirement.
type Space interface {
	// Check reports whether the receiver, as a requirement, accepts the
	// given capability: every value the capability can take must be
	// acceptable under the receiver.
	Check(capability Space) CheckResult

	// Intersect narrows the receiver and other, both read as requirements,
	// into a single space. The second return value is false when the two
	// spaces are disjoint.
	Intersect(other Space) (Space, bool)

	fmt.Stringer
}

// Any is the sentinel space that accepts every capability and intersects to
// the other operand unchanged.
type Any struct{}

// Check always passes: an absent constraint accepts anything.
func (Any) Check(capability Space) CheckResult {
	return Pass()
}

// Intersect returns the other operand unchanged.
func (Any) Intersect(other Space) (Space, bool) {
	if other == nil {
		return Any{}, true
	}
	return other, true
}

func (Any) String() string {
	return "any"
}

// IntRange is an inclusive numeric range. Max set to Unbounded means the
// range has no upper limit.
type IntRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// NewIntRange creates an inclusive range. It panics if min exceeds max;
// ranges come from declarative metadata, so a reversed range is a
// programming error, not input to tolerate.
func NewIntRange(min, max int) IntRange {
	if min > max {
		panic(fmt.Sprintf("search: IntRange min %d greater than max %d", min, max))
	}
	return IntRange{Min: min, Max: max}
}

// AtLeast creates a lower-bounded range with no upper limit.
func AtLeast(min int) IntRange {
	return IntRange{Min: min, Max: Unbounded}
}

// Exactly creates a single-value range, the shape of a final capability.
func Exactly(value int) IntRange {
	return IntRange{Min: value, Max: value}
}

// IsExact reports whether the range describes a single value.
func (r IntRange) IsExact() bool {
	return r.Min == r.Max
}

// Check passes iff the capability's range is fully contained in the
// requirement's range, treating an unbounded max as positive infinity.
func (r IntRange) Check(capability Space) CheckResult {
	cap, ok := asRange(capability)
	if !ok {
		return Failf("expected a numeric capability, got %s", describe(capability))
	}
	result := Pass()
	if cap.Min < r.Min {
		result.AddReason(fmt.Sprintf("capability min(%d) is below requirement min(%d)", cap.Min, r.Min))
	}
	if cap.Max > r.Max {
		result.AddReason(fmt.Sprintf("capability max(%s) is above requirement max(%s)", boundString(cap.Max), boundString(r.Max)))
	}
	return result
}

// Intersect returns the overlapping interval, or false when the ranges are
// disjoint.
func (r IntRange) Intersect(other Space) (Space, bool) {
	if isAny(other) {
		return r, true
	}
	o, ok := asRange(other)
	if !ok {
		return nil, false
	}
	merged := IntRange{Min: r.Min, Max: r.Max}
	if o.Min > merged.Min {
		merged.Min = o.Min
	}
	if o.Max < merged.Max {
		merged.Max = o.Max
	}
	if merged.Min > merged.Max {
		return nil, false
	}
	return merged, true
}

func (r IntRange) String() string {
	if r.Max == Unbounded {
		return fmt.Sprintf("[%d,]", r.Min)
	}
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// CountSpace is a lower-bounded count, e.g. "at least 2 NICs". It behaves
// like an IntRange from its minimum to infinity but keeps the declarative
// shape metadata uses.
type CountSpace struct {
	Min int `yaml:"min" json:"min"`
}

// AtLeastCount creates a lower-bounded count space.
func AtLeastCount(min int) CountSpace {
	return CountSpace{Min: min}
}

// Check passes iff the capability guarantees at least Min.
func (c CountSpace) Check(capability Space) CheckResult {
	cap, ok := asRange(capability)
	if !ok {
		return Failf("expected a countable capability, got %s", describe(capability))
	}
	if cap.Min < c.Min {
		return Failf("capability guarantees %d, requirement needs at least %d", cap.Min, c.Min)
	}
	return Pass()
}

// Intersect keeps the larger lower bound. Counts are never disjoint with
// each other; against a bounded range the range semantics apply.
func (c CountSpace) Intersect(other Space) (Space, bool) {
	if isAny(other) {
		return c, true
	}
	if o, ok := other.(CountSpace); ok {
		if o.Min > c.Min {
			return o, true
		}
		return c, true
	}
	return c.asIntRange().Intersect(other)
}

func (c CountSpace) asIntRange() IntRange {
	return IntRange{Min: c.Min, Max: Unbounded}
}

func (c CountSpace) String() string {
	return fmt.Sprintf("count>=%d", c.Min)
}

// SetSpace is an ordered set of enumerable choices. AllowSuperset controls
// the requirement reading: when false the capability must offer a subset of
// the requested values; when true a capability offering every requested
// value (and possibly more) satisfies the requirement, which is how feature
// flags are declared.
type SetSpace struct {
	AllowSuperset bool     `yaml:"allowSuperset,omitempty" json:"allowSuperset,omitempty"`
	Values        []string `yaml:"values" json:"values"`
}

// NewSetSpace creates a set space preserving insertion order and dropping
// duplicates.
func NewSetSpace(allowSuperset bool, values ...string) SetSpace {
	s := SetSpace{AllowSuperset: allowSuperset}
	for _, v := range values {
		s.add(v)
	}
	return s
}

func (s *SetSpace) add(value string) {
	for _, existing := range s.Values {
		if existing == value {
			return
		}
	}
	s.Values = append(s.Values, value)
}

// Contains reports whether the set includes the given value.
func (s SetSpace) Contains(value string) bool {
	for _, existing := range s.Values {
		if existing == value {
			return true
		}
	}
	return false
}

// Check passes iff the capability's values are a subset of the
// requirement's, or, in allow-superset mode, the requirement's values are a
// subset of the capability's.
func (s SetSpace) Check(capability Space) CheckResult {
	cap, ok := capability.(SetSpace)
	if !ok {
		return Failf("expected a set capability, got %s", describe(capability))
	}
	if s.AllowSuperset {
		var missing []string
		for _, v := range s.Values {
			if !cap.Contains(v) {
				missing = append(missing, v)
			}
		}
		if len(missing) > 0 {
			return Failf("capability lacks required values [%s]", strings.Join(missing, ", "))
		}
		return Pass()
	}
	var excess []string
	for _, v := range cap.Values {
		if !s.Contains(v) {
			excess = append(excess, v)
		}
	}
	if len(excess) > 0 {
		return Failf("capability offers values [%s] outside requirement", strings.Join(excess, ", "))
	}
	return Pass()
}

// Intersect returns the ordered intersection of values, following the
// insertion order of the receiver. An empty intersection is disjoint.
func (s SetSpace) Intersect(other Space) (Space, bool) {
	if isAny(other) {
		return s, true
	}
	o, ok := other.(SetSpace)
	if !ok {
		return nil, false
	}
	merged := SetSpace{AllowSuperset: s.AllowSuperset || o.AllowSuperset}
	for _, v := range s.Values {
		if o.Contains(v) {
			merged.add(v)
		}
	}
	if len(merged.Values) == 0 {
		return nil, false
	}
	return merged, true
}

func (s SetSpace) String() string {
	mode := "subset"
	if s.AllowSuperset {
		mode = "superset"
	}
	return fmt.Sprintf("{%s|%s}", strings.Join(s.Values, ","), mode)
}

// Check applies requirement.Check(capability) with the nil conventions of
// the model: a nil requirement is Any, a nil capability fails every
// non-Any requirement because an environment must actually provide the
// dimension.
func Check(requirement, capability Space) CheckResult {
	if requirement == nil || isAny(requirement) {
		return Pass()
	}
	if capability == nil {
		return Failf("capability is absent, requirement is %s", requirement)
	}
	return requirement.Check(capability)
}

// Intersect narrows two requirement spaces with the nil conventions of the
// model: nil operands are Any and yield the other operand unchanged.
func Intersect(a, b Space) (Space, bool) {
	if a == nil || isAny(a) {
		if b == nil {
			return Any{}, true
		}
		return b, true
	}
	if b == nil || isAny(b) {
		return a, true
	}
	return a.Intersect(b)
}

// GenerateMin narrows a capability to the minimum concrete space that still
// satisfies the requirement. This is what a platform deploys: the cheapest
// shape the requirement accepts.
func GenerateMin(requirement, capability Space) (Space, error) {
	check := Check(requirement, capability)
	if !check.OK {
		return nil, fmt.Errorf("cannot generate min capability: %s", check.Reason())
	}
	if capability == nil || isAny(capability) {
		// An unconstrained capability bottoms out at the requirement's own
		// lower bound.
		switch req := requirement.(type) {
		case IntRange:
			return Exactly(req.Min), nil
		case CountSpace:
			return Exactly(req.Min), nil
		case SetSpace:
			return req, nil
		default:
			return Any{}, nil
		}
	}
	switch cap := capability.(type) {
	case IntRange:
		min := cap.Min
		if req, ok := asRange(requirement); ok && req.Min > min {
			min = req.Min
		}
		return Exactly(min), nil
	case CountSpace:
		min := cap.Min
		if req, ok := asRange(requirement); ok && req.Min > min {
			min = req.Min
		}
		return Exactly(min), nil
	case SetSpace:
		req, ok := requirement.(SetSpace)
		if !ok || !req.AllowSuperset {
			return cap, nil
		}
		// In allow-superset mode the minimum capability is exactly the
		// requested values.
		return NewSetSpace(true, req.Values...), nil
	default:
		return capability, nil
	}
}

// asRange views numeric spaces uniformly as inclusive ranges.
func asRange(s Space) (IntRange, bool) {
	switch v := s.(type) {
	case IntRange:
		return v, true
	case CountSpace:
		return v.asIntRange(), true
	default:
		return IntRange{}, false
	}
}

func isAny(s Space) bool {
	_, ok := s.(Any)
	return ok
}

func describe(s Space) string {
	if s == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T(%s)", s, s)
}

func boundString(v int) string {
	if v == Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", v)
}
