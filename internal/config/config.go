package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"convoke/internal/combinator"
	"convoke/internal/require"
	"convoke/internal/scheduler"
	"convoke/internal/testcase"
	"convoke/internal/transformer"
	"convoke/pkg/logging"
)

// Combinator type names accepted in a run document.
const (
	CombinatorGrid  = "grid"
	CombinatorBatch = "batch"
)

// Transformer type names accepted in a run document.
const (
	TransformerRename   = "rename"
	TransformerTemplate = "template"
	TransformerExpr     = "expr"
)

// Config is one run document: the variable matrix, the transformer chain,
// requirement layers, filters, scheduler settings and platform order.
type Config struct {
	Name string `yaml:"name"`

	// Combinator selects grid (default) or batch expansion.
	Combinator string `yaml:"combinator,omitempty"`

	// Variables are the grid axes, in declaration order.
	Variables []VariableList `yaml:"variables,omitempty"`

	// Batch holds explicit variable sets for the batch combinator.
	Batch []map[string]any `yaml:"batch,omitempty"`

	Transformers []TransformerSpec `yaml:"transformers,omitempty"`

	// Requirement is the global requirement layer every case narrows.
	Requirement require.EnvironmentRequirement `yaml:"requirement,omitempty"`

	// Suites maps suite name to the suite requirement layer.
	Suites map[string]require.EnvironmentRequirement `yaml:"suites,omitempty"`

	Filter testcase.Filter `yaml:"filter,omitempty"`

	Scheduler SchedulerSettings `yaml:"scheduler,omitempty"`

	// Platforms orders adapters by ascending priority.
	Platforms []PlatformSettings `yaml:"platforms,omitempty"`

	// Reuse recycles released environments for later cases.
	Reuse bool `yaml:"reuse,omitempty"`
}

// VariableList is one named grid axis.
type VariableList struct {
	Name   string `yaml:"name"`
	Values []any  `yaml:"values"`
}

// TransformerSpec declares one step of the transformer chain.
type TransformerSpec struct {
	Type string `yaml:"type"`

	// Mapping configures rename: old name to new name.
	Mapping map[string]string `yaml:"mapping,omitempty"`

	// Outputs configures template and expr: output variable to template
	// string or expression source.
	Outputs map[string]string `yaml:"outputs,omitempty"`
}

// SchedulerSettings tunes the worker pool.
type SchedulerSettings struct {
	Parallelism int           `yaml:"parallelism,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Retries     int           `yaml:"retries,omitempty"`
}

// UnmarshalYAML accepts the timeout either as a duration string ("30m")
// or as a bare number of seconds.
func (s *SchedulerSettings) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Parallelism int    `yaml:"parallelism"`
		Timeout     string `yaml:"timeout"`
		Retries     int    `yaml:"retries"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	s.Parallelism = raw.Parallelism
	s.Retries = raw.Retries
	if raw.Timeout == "" {
		s.Timeout = 0
		return nil
	}
	if seconds, err := strconv.Atoi(raw.Timeout); err == nil {
		s.Timeout = time.Duration(seconds) * time.Second
		return nil
	}
	d, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		return fmt.Errorf("scheduler timeout: %w", err)
	}
	s.Timeout = d
	return nil
}

// PlatformSettings orders one platform adapter.
type PlatformSettings struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority,omitempty"`
}

// Defaults applied to absent run document fields.
const (
	DefaultParallelism = 1
	DefaultTimeout     = time.Hour
)

// Load reads and validates a run document.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run document: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	logging.Info("Config", "loaded run document %s (%s)", path, cfg.Name)
	return cfg, nil
}

// Parse decodes a run document from bytes. Unknown fields are rejected so
// a typo cannot silently drop a constraint.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Combinator == "" {
		c.Combinator = CombinatorGrid
	}
	if c.Scheduler.Parallelism <= 0 {
		c.Scheduler.Parallelism = DefaultParallelism
	}
	if c.Scheduler.Timeout <= 0 {
		c.Scheduler.Timeout = DefaultTimeout
	}
}

// Validate checks the document's internal consistency.
func (c *Config) Validate() error {
	switch c.Combinator {
	case CombinatorGrid:
		if len(c.Batch) > 0 {
			return fmt.Errorf("combinator %q does not take batch items", CombinatorGrid)
		}
	case CombinatorBatch:
		if len(c.Variables) > 0 {
			return fmt.Errorf("combinator %q does not take variable lists", CombinatorBatch)
		}
	default:
		return fmt.Errorf("unknown combinator %q", c.Combinator)
	}

	for i, spec := range c.Transformers {
		switch spec.Type {
		case TransformerRename:
			if len(spec.Mapping) == 0 {
				return fmt.Errorf("transformer %d: rename needs a mapping", i)
			}
		case TransformerTemplate, TransformerExpr:
			if len(spec.Outputs) == 0 {
				return fmt.Errorf("transformer %d: %s needs outputs", i, spec.Type)
			}
		default:
			return fmt.Errorf("transformer %d: unknown type %q", i, spec.Type)
		}
	}

	seen := make(map[string]bool, len(c.Platforms))
	for _, p := range c.Platforms {
		if p.Name == "" {
			return fmt.Errorf("platform entry with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("platform %s listed twice", p.Name)
		}
		seen[p.Name] = true
	}

	if c.Scheduler.Retries < 0 {
		return fmt.Errorf("scheduler retries must not be negative")
	}
	return nil
}

// BuildCombinator constructs the configured combinator.
func (c *Config) BuildCombinator() (combinator.Combinator, error) {
	if c.Combinator == CombinatorBatch {
		return combinator.NewBatch(c.Batch), nil
	}
	lists := make([]combinator.VariableList, len(c.Variables))
	for i, v := range c.Variables {
		lists[i] = combinator.VariableList{Name: v.Name, Values: v.Values}
	}
	return combinator.NewGrid(lists)
}

// BuildChain constructs the configured transformer chain in declared
// order.
func (c *Config) BuildChain() (*transformer.Chain, error) {
	transformers := make([]transformer.Transformer, 0, len(c.Transformers))
	for i, spec := range c.Transformers {
		switch spec.Type {
		case TransformerRename:
			transformers = append(transformers, transformer.NewRename(spec.Mapping))
		case TransformerTemplate:
			transformers = append(transformers, transformer.NewTemplate(spec.Outputs))
		case TransformerExpr:
			tf, err := transformer.NewExpr(spec.Outputs)
			if err != nil {
				return nil, fmt.Errorf("transformer %d: %w", i, err)
			}
			transformers = append(transformers, tf)
		}
	}
	return transformer.NewChain(transformers...), nil
}

// SchedulerOptions maps the document settings onto scheduler options.
func (c *Config) SchedulerOptions() scheduler.Options {
	return scheduler.Options{
		Parallelism:    c.Scheduler.Parallelism,
		DefaultTimeout: c.Scheduler.Timeout,
		DefaultRetries: c.Scheduler.Retries,
	}
}

// PlatformPriority returns the declared priority for a platform and
// whether the document lists it at all. An empty platform list admits
// every registered platform at priority zero.
func (c *Config) PlatformPriority(name string) (int, bool) {
	if len(c.Platforms) == 0 {
		return 0, true
	}
	for _, p := range c.Platforms {
		if p.Name == name {
			return p.Priority, true
		}
	}
	return 0, false
}
