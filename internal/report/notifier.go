package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"convoke/internal/api"
	pkgstrings "convoke/pkg/strings"
)

// Notifier receives test results as they complete and the summary when
// the run drains. Implementations must tolerate concurrent Result calls.
type Notifier interface {
	Result(result api.TestResult)
	Summary(summary *api.RunSummary)
}

// Console streams one line per completed result and a summary table at
// the end.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Result prints a single status line for the completed case.
func (c *Console) Result(result api.TestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := fmt.Sprintf("%s %s", statusBadge(result.Status), result.TestID)
	if result.EnvironmentID != "" {
		line += fmt.Sprintf(" (env %s)", result.EnvironmentID)
	}
	if result.Message != "" {
		line += ": " + pkgstrings.OneLine(result.Message)
	}
	fmt.Fprintln(c.out, line)
}

// Summary prints the run summary table.
func (c *Console) Summary(summary *api.RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	RenderSummary(c.out, summary)
}

func statusBadge(status api.TestStatus) string {
	switch status {
	case api.StatusPassed:
		return text.FgGreen.Sprint("PASS")
	case api.StatusFailed:
		return text.FgRed.Sprint("FAIL")
	case api.StatusSkipped:
		return text.FgYellow.Sprint("SKIP")
	default:
		return string(status)
	}
}

// Multi fans notifications out to several notifiers in order.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Result forwards to every notifier.
func (m *Multi) Result(result api.TestResult) {
	for _, n := range m.notifiers {
		n.Result(result)
	}
}

// Summary forwards to every notifier.
func (m *Multi) Summary(summary *api.RunSummary) {
	for _, n := range m.notifiers {
		n.Summary(summary)
	}
}
