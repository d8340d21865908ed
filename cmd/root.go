package cmd

import (
	"errors"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"convoke/internal/api"
	"convoke/internal/platform"
	"convoke/internal/testcase"
	"convoke/pkg/logging"
)

// Exit codes for CLI commands, for scripting against run outcomes.
const (
	// ExitCodeSuccess indicates every selected case passed or was skipped
	// by a filter.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (bad arguments, I/O).
	ExitCodeError = 1
	// ExitCodeConfigInvalid indicates the run document failed validation,
	// including requirement layers that intersect to nothing.
	ExitCodeConfigInvalid = 2
	// ExitCodeTestsFailed indicates the run completed but at least one
	// case failed.
	ExitCodeTestsFailed = 3
)

var debugLogging bool

// rootCmd is the base command of the convoke binary.
var rootCmd = &cobra.Command{
	Use:   "convoke",
	Short: "Match test requirements to environments and run them",
	Long: `convoke expands a declarative test matrix into concrete runs,
matches each test's hardware requirements against platform capabilities,
drives environment deployment and teardown, and schedules the tests
across the resulting environments.`,
	// SilenceUsage keeps handled errors from dumping usage text.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logLevel(), os.Stderr)
	},
}

// logLevel maps the --debug flag to the logging filter level.
func logLevel() logging.LogLevel {
	if debugLogging {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable debug logging")
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// SetVersion injects the build version, called from main.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI and exits with a semantic exit code.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "convoke version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// testsFailedError marks a completed run with failing cases.
type testsFailedError struct {
	failed int
}

func (e *testsFailedError) Error() string {
	return "run completed with failures"
}

func exitCode(err error) int {
	var failed *testsFailedError
	if errors.As(err, &failed) {
		return ExitCodeTestsFailed
	}
	if api.IsIntersectionConflict(err) || errors.Is(err, errConfigInvalid) {
		return ExitCodeConfigInvalid
	}
	return ExitCodeError
}

// errConfigInvalid wraps run document validation failures for exit-code
// mapping.
var errConfigInvalid = errors.New("run document invalid")

var (
	registryMu    sync.Mutex
	testRegistry  = testcase.NewRegistry()
	platformsByID = map[string]platform.Platform{}
)

// Tests returns the process-wide test case registry. Test packages
// register their cases here from init functions.
func Tests() *testcase.Registry {
	return testRegistry
}

// RegisterPlatform makes a platform adapter available to run documents.
// The built-in ready platform is always available.
func RegisterPlatform(p platform.Platform) {
	registryMu.Lock()
	defer registryMu.Unlock()
	platformsByID[p.Name()] = p
}

// availablePlatforms returns the registered adapters plus the built-in
// ready platform.
func availablePlatforms() map[string]platform.Platform {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make(map[string]platform.Platform, len(platformsByID)+1)
	for name, p := range platformsByID {
		out[name] = p
	}
	if _, ok := out[platform.ReadyName]; !ok {
		out[platform.ReadyName] = platform.NewReady()
	}
	return out
}
