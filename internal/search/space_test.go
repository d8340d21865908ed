package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntRangeCheckContainment(t *testing.T) {
	tests := []struct {
		name        string
		requirement IntRange
		capability  Space
		want        bool
	}{
		{"capability inside requirement", NewIntRange(2, 8), NewIntRange(4, 4), true},
		{"capability equals requirement", NewIntRange(2, 8), NewIntRange(2, 8), true},
		{"capability below min", NewIntRange(4, 8), NewIntRange(2, 4), false},
		{"capability above max", NewIntRange(2, 4), NewIntRange(2, 8), false},
		{"unbounded requirement accepts exact", AtLeast(2), Exactly(4), true},
		{"unbounded requirement rejects low capability", AtLeast(4), Exactly(2), false},
		{"unbounded capability inside unbounded requirement", AtLeast(2), AtLeast(4), true},
		{"unbounded capability overflows bounded requirement", NewIntRange(2, 8), AtLeast(4), false},
		{"count capability read as range", AtLeast(2), AtLeastCount(4), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.requirement.Check(tt.capability)
			assert.Equal(t, tt.want, result.OK, "reasons: %v", result.Reasons)
			if !tt.want {
				assert.NotEmpty(t, result.Reasons)
			}
		})
	}
}

func TestIntRangeCheckRejectsSetCapability(t *testing.T) {
	result := NewIntRange(1, 4).Check(NewSetSpace(false, "a"))
	assert.False(t, result.OK)
}

func TestIntRangeIntersect(t *testing.T) {
	tests := []struct {
		name     string
		a, b     IntRange
		want     IntRange
		overlaps bool
	}{
		{"overlapping", NewIntRange(1, 10), NewIntRange(5, 20), NewIntRange(5, 10), true},
		{"contained", NewIntRange(1, 10), NewIntRange(3, 5), NewIntRange(3, 5), true},
		{"touching", NewIntRange(1, 5), NewIntRange(5, 10), Exactly(5), true},
		{"disjoint", NewIntRange(1, 4), NewIntRange(8, 10), IntRange{}, false},
		{"unbounded narrows", AtLeast(2), NewIntRange(4, 8), NewIntRange(4, 8), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			require.Equal(t, tt.overlaps, ok)

			// Commutativity: the overlapping interval is the same value set
			// regardless of operand order.
			reversed, reversedOK := tt.b.Intersect(tt.a)
			assert.Equal(t, ok, reversedOK)

			if ok {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, got, reversed)
			}
		})
	}
}

func TestIntRangeDisjointIsConfigurationConflict(t *testing.T) {
	// Suite-level 1024..4096 vs case-level 8192.. must not intersect.
	suite := NewIntRange(1024, 4096)
	caseLevel := AtLeast(8192)

	_, ok := suite.Intersect(caseLevel)
	assert.False(t, ok)
}

func TestSetSpaceCheckSubset(t *testing.T) {
	requirement := NewSetSpace(false, "gen1", "gen2")

	assert.True(t, requirement.Check(NewSetSpace(false, "gen1")).OK)
	assert.True(t, requirement.Check(NewSetSpace(false, "gen1", "gen2")).OK)

	result := requirement.Check(NewSetSpace(false, "gen1", "gen3"))
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason(), "gen3")
}

func TestSetSpaceCheckAllowSuperset(t *testing.T) {
	// Feature-flag reading: the capability must offer everything requested,
	// extra offerings are fine.
	requirement := NewSetSpace(true, "serial_console", "gpu")

	assert.True(t, requirement.Check(NewSetSpace(true, "serial_console", "gpu", "nested_virt")).OK)

	result := requirement.Check(NewSetSpace(true, "serial_console"))
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason(), "gpu")
}

func TestSetSpaceIntersect(t *testing.T) {
	a := NewSetSpace(false, "a", "b", "c")
	b := NewSetSpace(false, "c", "b", "d")

	merged, ok := a.Intersect(b)
	require.True(t, ok)
	// Order follows the first operand.
	assert.Equal(t, []string{"b", "c"}, merged.(SetSpace).Values)

	reversed, ok := b.Intersect(a)
	require.True(t, ok)
	// Commutative by value set, not by sequence.
	assert.ElementsMatch(t, merged.(SetSpace).Values, reversed.(SetSpace).Values)
}

func TestSetSpaceIntersectDisjoint(t *testing.T) {
	a := NewSetSpace(false, "a")
	b := NewSetSpace(false, "b")

	_, ok := a.Intersect(b)
	assert.False(t, ok)
}

func TestSetSpaceDeduplicatesPreservingOrder(t *testing.T) {
	s := NewSetSpace(false, "x", "y", "x", "z", "y")
	assert.Equal(t, []string{"x", "y", "z"}, s.Values)
}

func TestCountSpaceCheck(t *testing.T) {
	requirement := AtLeastCount(2)

	assert.True(t, requirement.Check(Exactly(2)).OK)
	assert.True(t, requirement.Check(AtLeastCount(4)).OK)
	assert.False(t, requirement.Check(Exactly(1)).OK)
}

func TestCountSpaceIntersectKeepsLargerBound(t *testing.T) {
	merged, ok := AtLeastCount(2).Intersect(AtLeastCount(4))
	require.True(t, ok)
	assert.Equal(t, AtLeastCount(4), merged)
}

func TestAnyAcceptsEverythingAndIntersectsToOther(t *testing.T) {
	assert.True(t, Any{}.Check(Exactly(1)).OK)
	assert.True(t, Any{}.Check(NewSetSpace(false, "a")).OK)

	other := NewIntRange(1, 4)
	merged, ok := Any{}.Intersect(other)
	require.True(t, ok)
	assert.Equal(t, Space(other), merged)

	merged, ok = other.Intersect(Any{})
	require.True(t, ok)
	assert.Equal(t, Space(other), merged)
}

func TestPackageCheckNilConventions(t *testing.T) {
	// Nil requirement defaults to any.
	assert.True(t, Check(nil, Exactly(4)).OK)

	// Nil capability fails a real requirement.
	result := Check(AtLeast(2), nil)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason(), "absent")
}

func TestPackageIntersectNilConventions(t *testing.T) {
	r := AtLeast(2)

	merged, ok := Intersect(nil, r)
	require.True(t, ok)
	assert.Equal(t, Space(r), merged)

	merged, ok = Intersect(r, nil)
	require.True(t, ok)
	assert.Equal(t, Space(r), merged)

	merged, ok = Intersect(nil, nil)
	require.True(t, ok)
	assert.Equal(t, Space(Any{}), merged)
}

func TestGenerateMinIntRange(t *testing.T) {
	// Requirement at least 2, platform can give 4..16: deploy 4.
	min, err := GenerateMin(AtLeast(2), NewIntRange(4, 16))
	require.NoError(t, err)
	assert.Equal(t, Space(Exactly(4)), min)

	// Requirement 8.., platform 8..16: deploy 8.
	min, err = GenerateMin(AtLeast(8), NewIntRange(8, 16))
	require.NoError(t, err)
	assert.Equal(t, Space(Exactly(8)), min)

	// Unconstrained capability bottoms out at the requirement minimum.
	min, err = GenerateMin(AtLeast(2), Any{})
	require.NoError(t, err)
	assert.Equal(t, Space(Exactly(2)), min)
}

func TestGenerateMinRejectsFailingCheck(t *testing.T) {
	_, err := GenerateMin(AtLeast(8), NewIntRange(2, 4))
	assert.Error(t, err)
}

func TestGenerateMinSetSpaceSuperset(t *testing.T) {
	requirement := NewSetSpace(true, "serial_console")
	capability := NewSetSpace(true, "serial_console", "gpu", "nested_virt")

	min, err := GenerateMin(requirement, capability)
	require.NoError(t, err)
	assert.Equal(t, []string{"serial_console"}, min.(SetSpace).Values)
}

func TestCheckResultMergePrefixesReasons(t *testing.T) {
	result := Pass()
	result.Merge(Failf("capability min(1) is below requirement min(2)"), "core_count")
	result.Merge(Pass(), "memory_mb")

	assert.False(t, result.OK)
	assert.Equal(t, []string{"core_count: capability min(1) is below requirement min(2)"}, result.Reasons)
}

func TestNewIntRangePanicsOnReversedBounds(t *testing.T) {
	assert.Panics(t, func() { NewIntRange(4, 2) })
}
