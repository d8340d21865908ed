package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	req "convoke/internal/require"
	"convoke/internal/search"
)

const sampleDocument = `
name: kernel-matrix
combinator: grid
variables:
  - name: image
    values: [ubuntu-24.04, debian-12]
  - name: vm_size
    values: [small, large]
transformers:
  - type: template
    outputs:
      vhd_path: "https://store/{{ image }}.vhd"
requirement:
  nodes:
    - core_count: {min: 2}
suites:
  perf:
    nodes:
      - core_count: {min: 8}
        memory_mb: {min: 16384}
filter:
  exclude: [slow-suite]
scheduler:
  parallelism: 4
  timeout: 30m
  retries: 2
platforms:
  - name: ready
    priority: 0
  - name: cloud
    priority: 10
reuse: true
`

func TestParseFullDocument(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "kernel-matrix", cfg.Name)
	assert.Equal(t, CombinatorGrid, cfg.Combinator)
	require.Len(t, cfg.Variables, 2)
	assert.Equal(t, "image", cfg.Variables[0].Name)

	require.Len(t, cfg.Requirement.Nodes, 1)
	assert.Equal(t, search.AtLeast(2), cfg.Requirement.Nodes[0][req.DimCoreCount])

	perf, ok := cfg.Suites["perf"]
	require.True(t, ok)
	assert.Equal(t, search.AtLeast(8), perf.Nodes[0][req.DimCoreCount])

	assert.Equal(t, []string{"slow-suite"}, cfg.Filter.Exclude)
	assert.Equal(t, 4, cfg.Scheduler.Parallelism)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Timeout)
	assert.Equal(t, 2, cfg.Scheduler.Retries)
	assert.True(t, cfg.Reuse)

	priority, ok := cfg.PlatformPriority("cloud")
	require.True(t, ok)
	assert.Equal(t, 10, priority)
	_, ok = cfg.PlatformPriority("unknown")
	assert.False(t, ok)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("name: minimal\n"))
	require.NoError(t, err)

	assert.Equal(t, CombinatorGrid, cfg.Combinator)
	assert.Equal(t, DefaultParallelism, cfg.Scheduler.Parallelism)
	assert.Equal(t, DefaultTimeout, cfg.Scheduler.Timeout)

	// No platform list admits everything.
	_, ok := cfg.PlatformPriority("anything")
	assert.True(t, ok)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nrequirments: {}\n"))
	assert.Error(t, err)
}

func TestParseTimeoutAsSeconds(t *testing.T) {
	cfg, err := Parse([]byte("name: x\nscheduler:\n  timeout: 90\n"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.Timeout)
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte("name: x\ncombinator: product\n"))
	assert.EqualError(t, err, `unknown combinator "product"`)

	_, err = Parse([]byte(`
name: x
combinator: batch
variables:
  - name: a
    values: [1]
`))
	assert.EqualError(t, err, `combinator "batch" does not take variable lists`)

	_, err = Parse([]byte(`
name: x
transformers:
  - type: rename
`))
	assert.EqualError(t, err, "transformer 0: rename needs a mapping")

	_, err = Parse([]byte(`
name: x
platforms:
  - name: azure
  - name: azure
`))
	assert.EqualError(t, err, "platform azure listed twice")
}

func TestBuildCombinatorAndChain(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	comb, err := cfg.BuildCombinator()
	require.NoError(t, err)
	assert.Equal(t, 4, comb.Len())

	chain, err := cfg.BuildChain()
	require.NoError(t, err)

	set, ok := comb.Sequence().Next()
	require.True(t, ok)
	out, err := chain.Apply(set)
	require.NoError(t, err)
	assert.Equal(t, "https://store/ubuntu-24.04.vhd", out["vhd_path"])
}

func TestBuildBatchCombinator(t *testing.T) {
	cfg, err := Parse([]byte(`
name: pairs
combinator: batch
batch:
  - {image: a, vm_size: small}
  - {image: b, vm_size: large}
`))
	require.NoError(t, err)

	comb, err := cfg.BuildCombinator()
	require.NoError(t, err)
	sets := comb.Sequence().Collect()
	require.Len(t, sets, 2)
	assert.Equal(t, "a", sets[0]["image"])
}

func TestBuildChainRejectsBadExpression(t *testing.T) {
	cfg, err := Parse([]byte(`
name: x
transformers:
  - type: expr
    outputs:
      broken: "1 +"
`))
	require.NoError(t, err)

	_, err = cfg.BuildChain()
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "kernel-matrix", cfg.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: before\n"), 0o644))

	reloaded := make(chan *Config, 4)
	watcher := NewWatcher(path, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("name: after\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "after", cfg.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reloaded the document")
	}
}
