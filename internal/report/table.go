package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"convoke/internal/api"
	pkgstrings "convoke/pkg/strings"
)

const maxMessageWidth = 80

// RenderSummary writes the run summary as a table followed by the
// environment and timing totals.
func RenderSummary(out io.Writer, summary *api.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("TEST"),
		text.FgHiCyan.Sprint("SUITE"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("ATTEMPTS"),
		text.FgHiCyan.Sprint("ELAPSED"),
		text.FgHiCyan.Sprint("MESSAGE"),
	})
	for _, r := range summary.Results {
		message := pkgstrings.Truncate(r.Message, maxMessageWidth)
		t.AppendRow(table.Row{
			r.TestID,
			r.Suite,
			statusBadge(r.Status),
			r.Attempts,
			roundDuration(r.Elapsed),
			message,
		})
	}

	passed, failed, skipped := summary.Counts()
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped),
		"", "", "", roundDuration(summary.Elapsed), "",
	})
	t.Render()

	fmt.Fprintf(out, "environments: %d created, %d failed\n",
		summary.EnvironmentsCreated, summary.EnvironmentsFailed)
}

func roundDuration(d time.Duration) time.Duration {
	if d >= time.Second {
		return d.Round(time.Second / 10)
	}
	return d.Round(time.Millisecond)
}
