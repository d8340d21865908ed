package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"convoke/internal/config"
)

var validateWatch bool

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <run-document>",
		Short: "Validate a run document without running anything",
		Long: `Validate loads the run document, builds its combinator and transformer
chain, and resolves every registered case's requirement layers. Conflicts
between global, suite and case requirements are reported here instead of
mid-run.

With --watch the document is re-validated on every save until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
	cmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "re-validate whenever the document changes")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	if !validateWatch {
		if err := validateDocument(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", err)
			return fmt.Errorf("%w: %v", errConfigInvalid, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
		return nil
	}

	// Watch mode reports every save and never fails the command; it ends
	// on interrupt.
	report := func(cfg *config.Config, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", err)
			return
		}
		if err := validateAgainstRegistry(cfg); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
	}

	report(config.Load(path))

	watcher := config.NewWatcher(path, report)
	if err := watcher.Start(cmd.Context()); err != nil {
		return err
	}
	defer watcher.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-cmd.Context().Done():
	}
	return nil
}

func validateDocument(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	return validateAgainstRegistry(cfg)
}

// validateAgainstRegistry exercises everything that can fail before a
// run: pipeline construction and requirement layering.
func validateAgainstRegistry(cfg *config.Config) error {
	if _, err := cfg.BuildCombinator(); err != nil {
		return err
	}
	if _, err := cfg.BuildChain(); err != nil {
		return err
	}
	for suite, requirement := range cfg.Suites {
		testRegistry.SetSuiteRequirement(suite, requirement)
	}
	if _, err := testRegistry.Resolve(cfg.Requirement); err != nil {
		return err
	}
	return nil
}
