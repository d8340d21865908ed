package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered test cases and platforms",
		RunE:  runList,
	}
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "SUITE", "PRIORITY", "REQUIREMENT"})
	for _, c := range testRegistry.Cases() {
		t.AppendRow(table.Row{c.ID, c.Suite, c.Priority, c.Requirement.String()})
	}
	t.Render()

	pt := table.NewWriter()
	pt.SetOutputMirror(cmd.OutOrStdout())
	pt.SetStyle(table.StyleRounded)
	pt.AppendHeader(table.Row{"PLATFORM", "FEATURES"})
	for name, p := range availablePlatforms() {
		features := p.SupportedFeatures()
		pt.AppendRow(table.Row{name, features})
	}
	pt.SortBy([]table.SortBy{{Name: "PLATFORM", Mode: table.Asc}})
	pt.Render()
	return nil
}
