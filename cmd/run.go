package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"convoke/internal/api"
	"convoke/internal/config"
	"convoke/internal/environment"
	"convoke/internal/events"
	"convoke/internal/platform"
	"convoke/internal/report"
	"convoke/internal/scheduler"
	"convoke/internal/testcase"
	"convoke/internal/transformer"
	"convoke/pkg/logging"
)

var (
	runInclude []string
	runExclude []string
	runQuiet   bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <run-document>",
		Short: "Execute the registered test cases per a run document",
		Long: `Run expands the document's variable matrix through its combinator and
transformer chain, then executes every registered test case once per
resulting variable set. Environments are matched, deployed and torn down
as the schedule demands.

Exit code 0 means every case passed, 2 means the document is invalid and
3 means the run finished with failures.`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}
	cmd.Flags().StringSliceVar(&runInclude, "include", nil, "only run cases or suites with these names")
	cmd.Flags().StringSliceVar(&runExclude, "exclude", nil, "skip cases or suites with these names")
	cmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "suppress the progress spinner")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", errConfigInvalid, err)
	}

	sets, setErrors, err := expandMatrix(cfg)
	if err != nil {
		return err
	}
	for _, setErr := range setErrors {
		fmt.Fprintf(cmd.ErrOrStderr(), "configuration error: %v\n", setErr)
	}

	selected, filteredOut, err := selectCases(cfg)
	if err != nil {
		return err
	}

	platforms, err := buildPlatformRegistry(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfigInvalid, err)
	}

	console := report.NewConsole(cmd.OutOrStdout())
	bus := events.NewBus()

	var s *spinner.Spinner
	if !runQuiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Running tests..."
		s.Start()
		defer s.Stop()
		// Keep the spinner suffix tracking environment activity.
		bus.Subscribe(func(e events.Event) {
			if e.Reason == events.ReasonEnvironmentStateChanged {
				s.Suffix = " " + e.Describe()
			}
		})

		// While the spinner owns the terminal, log lines go through the
		// monitor channel and are relayed above it instead of garbling the
		// animation.
		entries := logging.InitForMonitor(logLevel())
		relayed := make(chan struct{})
		go func() {
			defer close(relayed)
			relayMonitorEntries(entries, cmd.ErrOrStderr(), debugLogging, s)
		}()
		defer func() {
			logging.CloseMonitorChannel()
			<-relayed
			logging.InitForCLI(logLevel(), os.Stderr)
		}()
	}

	sink := report.NewMulti(
		&spinnerNotifier{inner: console, spinner: s},
		&busNotifier{bus: bus},
	)

	merged := &api.RunSummary{}
	start := time.Now()
	for i, vars := range sets {
		logging.Info("Run", "variable set %d/%d: %v", i+1, len(sets), vars)
		ctx := testcase.WithVariables(cmd.Context(), vars)

		pool := environment.NewPool(platforms, cfg.Reuse)
		pool.SetStateChangeCallback(func(id string, oldState, newState environment.State, stateErr error) {
			event := events.Event{
				Reason:        events.ReasonEnvironmentStateChanged,
				EnvironmentID: id,
				Detail:        fmt.Sprintf("%s -> %s", oldState, newState),
			}
			if newState == environment.StateFailed {
				event.Reason = events.ReasonEnvironmentFailed
				event.Detail = fmt.Sprintf("%v", stateErr)
			}
			bus.Publish(event)
		})

		sched := scheduler.New(pool, cfg.SchedulerOptions())
		sched.SetResultCallback(sink.Result)

		summary, err := sched.Run(ctx, selected, filteredOut)
		if err != nil {
			return err
		}
		merged.Results = append(merged.Results, summary.Results...)
		merged.EnvironmentsCreated += summary.EnvironmentsCreated
		merged.EnvironmentsFailed += summary.EnvironmentsFailed
	}
	merged.Elapsed = time.Since(start)

	if s != nil {
		s.Stop()
	}
	sink.Summary(merged)

	if _, failed, _ := merged.Counts(); failed > 0 {
		return &testsFailedError{failed: failed}
	}
	return nil
}

// busNotifier republishes results as run events.
type busNotifier struct {
	bus *events.Bus
}

func (n *busNotifier) Result(r api.TestResult) { n.bus.Publish(resultEvent(r)) }

func (n *busNotifier) Summary(summary *api.RunSummary) {}

// spinnerNotifier pauses the spinner around the wrapped notifier's
// terminal output so result lines print on their own rows.
type spinnerNotifier struct {
	inner   report.Notifier
	spinner *spinner.Spinner
}

func (n *spinnerNotifier) Result(r api.TestResult) {
	if n.spinner != nil {
		n.spinner.Stop()
	}
	n.inner.Result(r)
	if n.spinner != nil {
		n.spinner.Start()
	}
}

func (n *spinnerNotifier) Summary(summary *api.RunSummary) {
	n.inner.Summary(summary)
}

// relayMonitorEntries prints monitor-mode log entries above the spinner.
// Without --debug only warnings and errors surface; the per-result lines
// and the spinner suffix carry the rest.
func relayMonitorEntries(entries <-chan logging.LogEntry, out io.Writer, debug bool, s *spinner.Spinner) {
	for entry := range entries {
		if !debug && entry.Level < logging.LevelWarn {
			continue
		}
		if s != nil {
			s.Stop()
		}
		line := fmt.Sprintf("%s [%s] %s", entry.Level, entry.Subsystem, entry.Message)
		if entry.Err != nil {
			line += fmt.Sprintf(": %v", entry.Err)
		}
		fmt.Fprintln(out, line)
		if s != nil {
			s.Start()
		}
	}
}

func resultEvent(r api.TestResult) events.Event {
	event := events.Event{
		TestID:        r.TestID,
		EnvironmentID: r.EnvironmentID,
		Detail:        r.Message,
	}
	switch r.Status {
	case api.StatusPassed:
		event.Reason = events.ReasonTestPassed
	case api.StatusFailed:
		event.Reason = events.ReasonTestFailed
	default:
		event.Reason = events.ReasonTestSkipped
	}
	return event
}

// expandMatrix runs the combinator through the transformer chain. A run
// with no variables still executes once, with an empty set.
func expandMatrix(cfg *config.Config) ([]map[string]any, []transformer.SetError, error) {
	comb, err := cfg.BuildCombinator()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errConfigInvalid, err)
	}
	chain, err := cfg.BuildChain()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errConfigInvalid, err)
	}

	sets, setErrors := transformer.Expand(comb, chain)
	if len(sets) == 0 {
		if len(setErrors) > 0 {
			return nil, setErrors, fmt.Errorf("%w: every variable set failed transformation", errConfigInvalid)
		}
		sets = []map[string]any{{}}
	}
	return sets, setErrors, nil
}

// selectCases resolves requirement layers and applies the document and
// command-line filters.
func selectCases(cfg *config.Config) (selected, filteredOut []testcase.Resolved, err error) {
	for suite, requirement := range cfg.Suites {
		testRegistry.SetSuiteRequirement(suite, requirement)
	}
	resolved, err := testRegistry.Resolve(cfg.Requirement)
	if err != nil {
		// Conflicting layers are a document problem, mapped to exit code 2.
		return nil, nil, err
	}

	filter := testcase.Filter{
		Include: append(append([]string{}, cfg.Filter.Include...), runInclude...),
		Exclude: append(append([]string{}, cfg.Filter.Exclude...), runExclude...),
	}
	selected, filteredOut = filter.Apply(resolved)
	for id, dependents := range testcase.StrandedDependents(selected, filteredOut) {
		logging.Warn("Run", "case %s is filtered out; dependent cases %v will be skipped", id, dependents)
	}
	return selected, filteredOut, nil
}

// buildPlatformRegistry orders the available adapters by the document's
// platform list. Documents listing no platforms admit everything at equal
// priority, in name order for determinism.
func buildPlatformRegistry(cfg *config.Config) (*platform.Registry, error) {
	available := availablePlatforms()
	registry := platform.NewRegistry()

	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(cfg.Platforms) == 0 {
		for _, name := range names {
			if err := registry.Register(available[name], 0); err != nil {
				return nil, err
			}
		}
		return registry, nil
	}

	for _, entry := range cfg.Platforms {
		p, ok := available[entry.Name]
		if !ok {
			return nil, fmt.Errorf("platform %s is not available; registered: %v", entry.Name, names)
		}
		if err := registry.Register(p, entry.Priority); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
