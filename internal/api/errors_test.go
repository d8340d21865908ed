package api

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnsatisfiableRequirementError(t *testing.T) {
	err := NewUnsatisfiableRequirementError("smoke-01", "core_count: capability max(2) below requirement min(4)")

	assert.Contains(t, err.Error(), "no environment capability satisfies requirement")
	assert.Contains(t, err.Error(), "smoke-01")
	assert.Contains(t, err.Error(), "core_count")
	assert.True(t, IsUnsatisfiableRequirement(err))
	assert.False(t, IsDeployment(err))

	wrapped := fmt.Errorf("scheduling: %w", err)
	assert.True(t, IsUnsatisfiableRequirement(wrapped))
}

func TestDeploymentErrorPreservesCause(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := NewDeploymentError("mockcloud", "env-1", cause)

	assert.Contains(t, err.Error(), "mockcloud")
	assert.Contains(t, err.Error(), "env-1")
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, IsDeployment(err))
	assert.ErrorIs(t, err, cause)
}

func TestIntersectionConflictError(t *testing.T) {
	err := NewIntersectionConflictError("mem-stress", "memory_mb", "[1024,4096]", "[8192,]")

	assert.Contains(t, err.Error(), "memory_mb")
	assert.Contains(t, err.Error(), "mem-stress")
	assert.True(t, IsIntersectionConflict(err))
	assert.False(t, IsTimeout(err))
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("long-boot", 90*time.Second)

	assert.Contains(t, err.Error(), "long-boot")
	assert.Contains(t, err.Error(), "1m30s")
	assert.True(t, IsTimeout(err))
}

func TestRunSummaryCounts(t *testing.T) {
	summary := RunSummary{
		Results: []TestResult{
			{TestID: "a", Status: StatusPassed},
			{TestID: "b", Status: StatusFailed},
			{TestID: "c", Status: StatusSkipped},
			{TestID: "d", Status: StatusPassed},
		},
	}

	passed, failed, skipped := summary.Counts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
}
